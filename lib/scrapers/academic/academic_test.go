package academic

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nanyuan-backend/lib/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const testToken = "jw-token-123"

func newTestClient(t testing.TB, handler http.Handler) (*Client, func()) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/academic")
	server := httptest.NewServer(handler)
	client := NewClient(ClientOptions{
		BaseUrl: server.URL,
		Retries: 1,
		Timeout: time.Second * 5,
	})
	return client, func() {
		server.Close()
		cleanup()
	}
}

func testContext(t testing.TB) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	t.Cleanup(cancel)
	return ctx
}

func TestLogin(t *testing.T) {
	client, cleanup := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/jw-privilegei/User/r-login", r.URL.Path)
		r.ParseForm()
		require.Equal(t, "20000001", r.PostFormValue("username"))
		require.Equal(t, "secret", r.PostFormValue("password"))
		w.Write([]byte(`{"msg": "jw-token-123"}`))
	}))
	defer cleanup()

	token, err := client.Login(testContext(t), 20000001, "secret")
	require.NoError(t, err)
	require.Equal(t, testToken, token)
}

func TestLoginBadCredentials(t *testing.T) {
	// a rejected login is a 200 with an empty msg, not an http error
	client, cleanup := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"msg": ""}`))
	}))
	defer cleanup()

	_, err := client.Login(testContext(t), 20000001, "wrong")
	require.ErrorIs(t, err, ErrBadCredentials)
}

func TestStudentName(t *testing.T) {
	client, cleanup := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/jw-privilegei/User/r-login":
			w.Write([]byte(`{"msg": "jw-token-123"}`))
		case "/jw-privilegei/User/r-getMyself":
			r.ParseForm()
			require.Equal(t, testToken, r.PostFormValue("jwloginToken"))
			w.Write([]byte(`{"msg": {"actualId": 99, "name": "张三", "xyid": 3, "zyid": 17}}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer cleanup()

	name, err := client.StudentName(testContext(t), 20000001, "secret")
	require.NoError(t, err)
	require.Equal(t, "张三", name)
}

func TestProfile(t *testing.T) {
	client, cleanup := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/jw-privilegei/User/r-getMyself":
			w.Write([]byte(`{"msg": {"actualId": 99, "name": "张三", "xyid": 3, "zyid": 17}}`))
		case "/jw-srsi/SrsFjflStudent/r-getZyfxRecByJbzlId":
			r.ParseForm()
			require.Equal(t, "99", r.PostFormValue("id"))
			w.Write([]byte(`{"msg": {"zyfxmc": "软件工程"}}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer cleanup()

	profile, err := client.Profile(testContext(t), 20000001, testToken)
	require.NoError(t, err)
	require.Equal(t, Profile{
		Grade:        2020,
		CollegeId:    3,
		ProfessionId: 17,
		Direction:    "软件工程",
	}, profile)
}

func TestProfileDirectionUndeclared(t *testing.T) {
	client, cleanup := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/jw-privilegei/User/r-getMyself":
			w.Write([]byte(`{"msg": {"actualId": 99, "name": "张三", "xyid": 3, "zyid": 17}}`))
		case "/jw-srsi/SrsFjflStudent/r-getZyfxRecByJbzlId":
			// students who never picked a direction get a null record
			w.Write([]byte(`{"msg": null}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer cleanup()

	profile, err := client.Profile(testContext(t), 20000001, testToken)
	require.NoError(t, err)
	require.Equal(t, DirectionUndeclared, profile.Direction)
}

const classScheduleBody = `{"msg": [
	{"name": "数据结构", "l3mc": "必修", "pkbdm": "B001", "kcxf": "3.5", "kbMergeList": [
		{"teacherList": [{"xm": "王老师"}], "classroomList": [{"jsmc": "励教楼201"}], "xq": 1, "qsj": 1, "jsj": 2, "qsz": 1, "jsz": 16},
		{"teacherList": [{"xm": "王老师"}, {"xm": "陈老师"}], "classroomList": [], "xq": 3, "qsj": 3, "jsj": 4, "qsz": 1, "jsz": 16}
	]},
	{"name": "高等数学", "l3mc": "必修", "pkbdm": "A002", "kcxf": "4", "kbMergeList": [
		{"teacherList": [{"xm": "李老师"}], "classroomList": [{"jsmc": "厚德楼105"}], "xq": 2, "qsj": 5, "jsj": 6, "qsz": 1, "jsz": 16}
	]}
]}`

func TestClassSchedule(t *testing.T) {
	client, cleanup := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/jw-cssi/CssStudent/r-listJxb", r.URL.Path)
		r.ParseForm()
		require.Equal(t, "2020", r.PostFormValue("xn"))
		require.Equal(t, "1", r.PostFormValue("xq"))
		require.Equal(t, testToken, r.PostFormValue("jwloginToken"))
		w.Write([]byte(classScheduleBody))
	}))
	defer cleanup()

	meetings, err := client.ClassSchedule(testContext(t), testToken, 2020, 1)
	require.NoError(t, err)

	expected := []CourseMeeting{
		{
			CourseName: "高等数学", SubdivisionType: "必修", CourseId: "A002", Credit: 4,
			Teachers: []string{"李老师"}, Classroom: "厚德楼105",
			Weekday: 2, StartNode: 5, EndNode: 6, StartWeek: 1, EndWeek: 16,
		},
		{
			CourseName: "数据结构", SubdivisionType: "必修", CourseId: "B001", Credit: 3.5,
			Teachers: []string{"王老师"}, Classroom: "励教楼201",
			Weekday: 1, StartNode: 1, EndNode: 2, StartWeek: 1, EndWeek: 16,
		},
		{
			CourseName: "数据结构", SubdivisionType: "必修", CourseId: "B001", Credit: 3.5,
			Teachers: []string{"王老师", "陈老师"}, Classroom: ClassroomUnassigned,
			Weekday: 3, StartNode: 3, EndNode: 4, StartWeek: 1, EndWeek: 16,
		},
	}
	if diff := cmp.Diff(expected, meetings); diff != "" {
		t.Fatalf("schedule mismatch (-want +got):\n%s", diff)
	}
}

func TestAchievements(t *testing.T) {
	client, cleanup := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/jw-amsi/AmsJxbXsZgcj/r-list", r.URL.Path)
		r.ParseForm()
		require.Equal(t, "2020", r.PostFormValue("kkxn"))
		require.Equal(t, "1", r.PostFormValue("xnxq"))
		w.Write([]byte(`{"msg": {"list": [{"kcmc": "数据结构", "cj": "92", "xf": "3.5"}]}}`))
	}))
	defer cleanup()

	grades, err := client.Achievements(testContext(t), testToken, 2020, 1)
	require.NoError(t, err)
	require.Equal(t, []Achievement{
		{CourseName: "数据结构", Score: "92", Credit: "3.5"},
	}, grades)
}

func TestTotalPoints(t *testing.T) {
	client, cleanup := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/jw-amsi/AmsJxbXsZgcj/listXs", r.URL.Path)
		r.ParseForm()
		require.Equal(t, "99", r.PostFormValue("id"))
		w.Write([]byte(`{"msg": {"list": [{"yxxf": 120.5, "yhdxf": 118, "avg": 88.3, "avgJd": 3.6}]}}`))
	}))
	defer cleanup()

	points, err := client.TotalPoints(testContext(t), testToken, 99)
	require.NoError(t, err)
	require.Equal(t, TotalPoints{
		SelectedCredit: 120.5,
		EarnedCredit:   118,
		Average:        88.3,
		AveragePoint:   3.6,
	}, points)
}
