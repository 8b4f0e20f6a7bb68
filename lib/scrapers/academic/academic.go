// Package academic proxies the academic-records system. Unlike the bus
// portal it speaks JSON, but it is just as flaky, so calls go through the
// same bounded-retry upstream client. The login token is passed as a form
// field on every request.
package academic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"nanyuan-backend/lib/upstream"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/academic")

const defaultBaseUrl = "http://ecampus.nfu.edu.cn:2929"

// ErrBadCredentials is returned when the academic system accepts the login
// request but issues no token.
var ErrBadCredentials = errors.New("student id or password is incorrect")

// ClassroomUnassigned marks a course meeting the system has not placed yet.
const ClassroomUnassigned = "未分配教室"

// DirectionUndeclared marks a student who has not picked a major direction.
const DirectionUndeclared = "未分专业方向"

type ClientOptions struct {
	BaseUrl string
	Timeout time.Duration
	Retries int
}

type Client struct {
	http *upstream.Client
}

func NewClient(opts ClientOptions) *Client {
	if opts.BaseUrl == "" {
		opts.BaseUrl = defaultBaseUrl
	}
	return &Client{
		http: upstream.NewClient(upstream.Options{
			BaseUrl:    opts.BaseUrl,
			Timeout:    opts.Timeout,
			Retries:    opts.Retries,
			TracerName: "scrapers/academic/http",
		}),
	}
}

func (c *Client) postJSON(ctx context.Context, path string, form map[string]string, out any) error {
	body, err := c.http.Do(ctx, upstream.Request{
		Method: "POST",
		Path:   path,
		Form:   form,
	})
	if err != nil {
		return err
	}
	err = json.Unmarshal(body, out)
	if err != nil {
		return &upstream.Error{Cause: fmt.Errorf("response is not json: %w", err)}
	}
	return nil
}

// Login authenticates against the academic system and returns its token.
func (c *Client) Login(ctx context.Context, studentId int64, password string) (string, error) {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	var res struct {
		Msg string `json:"msg"`
	}
	err := c.postJSON(ctx, "/jw-privilegei/User/r-login", map[string]string{
		"username": strconv.FormatInt(studentId, 10),
		"password": password,
		"rd":       "",
	}, &res)
	if err != nil {
		span.SetStatus(codes.Error, "login request failed")
		return "", err
	}

	if res.Msg == "" {
		span.SetStatus(codes.Error, "no token issued")
		return "", ErrBadCredentials
	}
	return res.Msg, nil
}

// Student is the system's own record of the logged-in student.
type Student struct {
	ActualId     int64  `json:"actualId"`
	Name         string `json:"name"`
	CollegeId    int64  `json:"xyid"`
	ProfessionId int64  `json:"zyid"`
}

// Student fetches the record behind a login token.
func (c *Client) Student(ctx context.Context, token string) (Student, error) {
	ctx, span := tracer.Start(ctx, "client:Student")
	defer span.End()

	var res struct {
		Msg Student `json:"msg"`
	}
	err := c.postJSON(ctx, "/jw-privilegei/User/r-getMyself", map[string]string{
		"jwloginToken": token,
	}, &res)
	if err != nil {
		span.SetStatus(codes.Error, "student request failed")
		return Student{}, err
	}
	return res.Msg, nil
}

// StudentName verifies a student id / password pair against the academic
// system and returns the student's real name.
func (c *Client) StudentName(ctx context.Context, studentId int64, password string) (string, error) {
	ctx, span := tracer.Start(ctx, "client:StudentName")
	defer span.End()

	token, err := c.Login(ctx, studentId, password)
	if err != nil {
		return "", err
	}
	student, err := c.Student(ctx, token)
	if err != nil {
		return "", err
	}
	if student.Name == "" {
		return "", &upstream.Error{Cause: errors.New("student record came back empty")}
	}
	return student.Name, nil
}

// Profile is the student's enrollment summary.
type Profile struct {
	Grade        int    `json:"grade"`
	CollegeId    int64  `json:"collegeId"`
	ProfessionId int64  `json:"professionId"`
	Direction    string `json:"direction"`
}

// Profile derives the enrollment summary for a student. The grade comes
// from the student id's leading digits; the major direction falls back to a
// sentinel for students who have not declared one.
func (c *Client) Profile(ctx context.Context, studentId int64, token string) (Profile, error) {
	ctx, span := tracer.Start(ctx, "client:Profile")
	defer span.End()

	student, err := c.Student(ctx, token)
	if err != nil {
		return Profile{}, err
	}

	grade := 0
	id := strconv.FormatInt(studentId, 10)
	if len(id) >= 2 {
		year, err := strconv.Atoi(id[:2])
		if err == nil {
			grade = 2000 + year
		}
	}

	profile := Profile{
		Grade:        grade,
		CollegeId:    student.CollegeId,
		ProfessionId: student.ProfessionId,
		Direction:    DirectionUndeclared,
	}

	var res struct {
		Msg *struct {
			Direction string `json:"zyfxmc"`
		} `json:"msg"`
	}
	err = c.postJSON(ctx, "/jw-srsi/SrsFjflStudent/r-getZyfxRecByJbzlId", map[string]string{
		"id":           strconv.FormatInt(student.ActualId, 10),
		"jwloginToken": token,
	}, &res)
	if err != nil {
		span.SetStatus(codes.Error, "profile request failed")
		return Profile{}, err
	}
	if res.Msg != nil && res.Msg.Direction != "" {
		profile.Direction = res.Msg.Direction
	}

	return profile, nil
}
