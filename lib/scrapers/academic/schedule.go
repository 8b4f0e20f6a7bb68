package academic

import (
	"context"
	"errors"
	"sort"
	"strconv"

	"nanyuan-backend/lib/upstream"

	"go.opentelemetry.io/otel/codes"
)

// CourseMeeting is one weekly meeting of a course, flattened from the
// system's nested merge list.
type CourseMeeting struct {
	CourseName      string   `json:"courseName"`
	SubdivisionType string   `json:"subdivisionType"`
	CourseId        string   `json:"courseId"`
	Credit          float64  `json:"credit"`
	Teachers        []string `json:"teachers"`
	Classroom       string   `json:"classroom"`
	Weekday         int      `json:"weekday"`
	StartNode       int      `json:"startNode"`
	EndNode         int      `json:"endNode"`
	StartWeek       int      `json:"startWeek"`
	EndWeek         int      `json:"endWeek"`
}

type jwCourse struct {
	Name   string `json:"name"`
	L3mc   string `json:"l3mc"`
	Pkbdm  string `json:"pkbdm"`
	Credit string `json:"kcxf"`
	Merges []struct {
		Teachers []struct {
			Name string `json:"xm"`
		} `json:"teacherList"`
		Classrooms []struct {
			Name string `json:"jsmc"`
		} `json:"classroomList"`
		Weekday   int `json:"xq"`
		StartNode int `json:"qsj"`
		EndNode   int `json:"jsj"`
		StartWeek int `json:"qsz"`
		EndWeek   int `json:"jsz"`
	} `json:"kbMergeList"`
}

// ClassSchedule fetches the timetable for a school year and semester. A
// course meeting without an assigned classroom gets the sentinel value
// instead of failing the whole schedule.
func (c *Client) ClassSchedule(ctx context.Context, token string, schoolYear, semester int) ([]CourseMeeting, error) {
	ctx, span := tracer.Start(ctx, "client:ClassSchedule")
	defer span.End()

	var res struct {
		Msg []jwCourse `json:"msg"`
	}
	err := c.postJSON(ctx, "/jw-cssi/CssStudent/r-listJxb", map[string]string{
		"xn":           strconv.Itoa(schoolYear),
		"xq":           strconv.Itoa(semester),
		"jwloginToken": token,
	}, &res)
	if err != nil {
		span.SetStatus(codes.Error, "class schedule request failed")
		return nil, err
	}

	var meetings []CourseMeeting
	for _, course := range res.Msg {
		credit, _ := strconv.ParseFloat(course.Credit, 64)
		for _, merge := range course.Merges {
			teachers := make([]string, len(merge.Teachers))
			for i, t := range merge.Teachers {
				teachers[i] = t.Name
			}

			classroom := ClassroomUnassigned
			if len(merge.Classrooms) > 0 {
				classroom = merge.Classrooms[0].Name
			}

			meetings = append(meetings, CourseMeeting{
				CourseName:      course.Name,
				SubdivisionType: course.L3mc,
				CourseId:        course.Pkbdm,
				Credit:          credit,
				Teachers:        teachers,
				Classroom:       classroom,
				Weekday:         merge.Weekday,
				StartNode:       merge.StartNode,
				EndNode:         merge.EndNode,
				StartWeek:       merge.StartWeek,
				EndWeek:         merge.EndWeek,
			})
		}
	}

	sort.SliceStable(meetings, func(i, j int) bool {
		return meetings[i].CourseId < meetings[j].CourseId
	})
	return meetings, nil
}

// Achievement is one graded course on the transcript.
type Achievement struct {
	CourseName string `json:"kcmc"`
	Score      string `json:"cj"`
	Credit     string `json:"xf"`
}

// Achievements fetches the transcript for a school year and semester.
func (c *Client) Achievements(ctx context.Context, token string, schoolYear, semester int) ([]Achievement, error) {
	ctx, span := tracer.Start(ctx, "client:Achievements")
	defer span.End()

	var res struct {
		Msg struct {
			List []Achievement `json:"list"`
		} `json:"msg"`
	}
	err := c.postJSON(ctx, "/jw-amsi/AmsJxbXsZgcj/r-list", map[string]string{
		"deleted":      "false",
		"pg":           "1",
		"pageSize":     "50",
		"kkxn":         strconv.Itoa(schoolYear),
		"xnxq":         strconv.Itoa(semester),
		"jwloginToken": token,
	}, &res)
	if err != nil {
		span.SetStatus(codes.Error, "achievement request failed")
		return nil, err
	}
	return res.Msg.List, nil
}

// TotalPoints is the overall credit and grade summary.
type TotalPoints struct {
	SelectedCredit float64 `json:"selectedCredit"`
	EarnedCredit   float64 `json:"earnedCredit"`
	Average        float64 `json:"average"`
	AveragePoint   float64 `json:"averagePoint"`
}

// TotalPoints fetches the student's overall credit and GPA summary.
func (c *Client) TotalPoints(ctx context.Context, token string, actualId int64) (TotalPoints, error) {
	ctx, span := tracer.Start(ctx, "client:TotalPoints")
	defer span.End()

	var res struct {
		Msg struct {
			List []struct {
				SelectedCredit float64 `json:"yxxf"`
				EarnedCredit   float64 `json:"yhdxf"`
				Average        float64 `json:"avg"`
				AveragePoint   float64 `json:"avgJd"`
			} `json:"list"`
		} `json:"msg"`
	}
	err := c.postJSON(ctx, "/jw-amsi/AmsJxbXsZgcj/listXs", map[string]string{
		"deleted":      "false",
		"pageSize":     "65535",
		"id":           strconv.FormatInt(actualId, 10),
		"jwloginToken": token,
	}, &res)
	if err != nil {
		span.SetStatus(codes.Error, "total points request failed")
		return TotalPoints{}, err
	}
	if len(res.Msg.List) == 0 {
		return TotalPoints{}, &upstream.Error{Cause: errors.New("summary list came back empty")}
	}

	row := res.Msg.List[0]
	return TotalPoints{
		SelectedCredit: row.SelectedCredit,
		EarnedCredit:   row.EarnedCredit,
		Average:        row.Average,
		AveragePoint:   row.AveragePoint,
	}, nil
}
