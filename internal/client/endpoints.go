package client

import (
	"context"
	"encoding/base64"
	"net/url"

	"github.com/gistda/internhub/internal/domain"
	"github.com/gistda/internhub/internal/guard"
)

func escape(id string) string {
	return url.PathEscape(id)
}

// RegisterRequest is the sign-up body
type RegisterRequest struct {
	Name     string                `json:"name"`
	Email    string                `json:"email"`
	Password string                `json:"password"`
	Role     domain.Role           `json:"role,omitempty"`
	Profile  *domain.InternProfile `json:"profile,omitempty"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login posts credentials and keeps the returned token on success
func (c *APIClient) Login(ctx context.Context, email, password string) (domain.LoginResult, error) {
	res, err := Post[domain.LoginResult](ctx, c, "/api/auth/login", credentials{Email: email, Password: password})
	if err != nil {
		return res, err
	}
	if res.OK {
		c.SetToken(res.Token)
	}
	return res, nil
}

// Register creates an account and keeps the returned token on success
func (c *APIClient) Register(ctx context.Context, in RegisterRequest) (domain.LoginResult, error) {
	res, err := Post[domain.LoginResult](ctx, c, "/api/auth/register", in)
	if err != nil {
		return res, err
	}
	if res.OK {
		c.SetToken(res.Token)
	}
	return res, nil
}

// Logout ends the server session and forgets the token
func (c *APIClient) Logout(ctx context.Context) error {
	defer c.SetToken("")
	_, err := Post[struct{}](ctx, c, "/api/auth/logout", nil)
	return err
}

// Me returns the user behind the current token
func (c *APIClient) Me(ctx context.Context) (domain.User, error) {
	return Get[domain.User](ctx, c, "/api/auth/me")
}

// UpdateProfile replaces the onboarding profile of the current user
func (c *APIClient) UpdateProfile(ctx context.Context, profile domain.InternProfile) (domain.User, error) {
	return Put[domain.User](ctx, c, "/api/auth/profile", profile)
}

// InitiateGoogleAuth returns the provider URL to send the user to
func (c *APIClient) InitiateGoogleAuth(ctx context.Context) (string, error) {
	res, err := Post[struct {
		AuthURL string `json:"authUrl"`
	}](ctx, c, "/api/auth/google/initiate", nil)
	return res.AuthURL, err
}

// GoogleCallbackResult is the answer to a provider callback
type GoogleCallbackResult struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// HandleGoogleCallback exchanges the provider code for a session token
func (c *APIClient) HandleGoogleCallback(ctx context.Context, code string) (GoogleCallbackResult, error) {
	res, err := Post[GoogleCallbackResult](ctx, c, "/api/auth/google/callback", map[string]string{"code": code})
	if err == nil && res.Token != "" {
		c.SetToken(res.Token)
	}
	return res, err
}

// ListUsers returns every account (admin only)
func (c *APIClient) ListUsers(ctx context.Context) ([]domain.User, error) {
	return Get[[]domain.User](ctx, c, "/api/users")
}

// CreateUser adds an account (admin only)
func (c *APIClient) CreateUser(ctx context.Context, user domain.User) (domain.User, error) {
	return Post[domain.User](ctx, c, "/api/users", user)
}

// UpdateUser patches an account
func (c *APIClient) UpdateUser(ctx context.Context, id string, patch domain.UserPatch) (domain.User, error) {
	return Put[domain.User](ctx, c, "/api/users/"+escape(id), patch)
}

// DeleteUser removes an account
func (c *APIClient) DeleteUser(ctx context.Context, id string) error {
	return Delete(ctx, c, "/api/users/"+escape(id))
}

// ListCourses returns every course
func (c *APIClient) ListCourses(ctx context.Context) ([]domain.Course, error) {
	return Get[[]domain.Course](ctx, c, "/api/courses")
}

// CreateCourse adds a course
func (c *APIClient) CreateCourse(ctx context.Context, course domain.Course) (domain.Course, error) {
	return Post[domain.Course](ctx, c, "/api/courses", course)
}

// UpdateCourse patches a course
func (c *APIClient) UpdateCourse(ctx context.Context, id string, patch domain.CoursePatch) (domain.Course, error) {
	return Put[domain.Course](ctx, c, "/api/courses/"+escape(id), patch)
}

// DeleteCourse removes a course
func (c *APIClient) DeleteCourse(ctx context.Context, id string) error {
	return Delete(ctx, c, "/api/courses/"+escape(id))
}

// UpdateLesson patches one lesson and returns it
func (c *APIClient) UpdateLesson(ctx context.Context, courseID, lessonID string, patch domain.LessonPatch) (domain.Lesson, error) {
	return Put[domain.Lesson](ctx, c, "/api/courses/"+escape(courseID)+"/lessons/"+escape(lessonID), patch)
}

// ListSubmissions returns every submission visible to the caller
func (c *APIClient) ListSubmissions(ctx context.Context) ([]domain.Submission, error) {
	return Get[[]domain.Submission](ctx, c, "/api/submissions")
}

// CreateSubmission submits a project for review
func (c *APIClient) CreateSubmission(ctx context.Context, submission domain.Submission) (domain.Submission, error) {
	return Post[domain.Submission](ctx, c, "/api/submissions", submission)
}

// UpdateSubmission patches a submission
func (c *APIClient) UpdateSubmission(ctx context.Context, id string, patch domain.SubmissionPatch) (domain.Submission, error) {
	return Put[domain.Submission](ctx, c, "/api/submissions/"+escape(id), patch)
}

// DeleteSubmission removes a submission
func (c *APIClient) DeleteSubmission(ctx context.Context, id string) error {
	return Delete(ctx, c, "/api/submissions/"+escape(id))
}

// ListEvaluations returns the evaluations visible to the caller
func (c *APIClient) ListEvaluations(ctx context.Context) ([]domain.Evaluation, error) {
	return Get[[]domain.Evaluation](ctx, c, "/api/evaluations")
}

// CreateEvaluation records a mentor evaluation
func (c *APIClient) CreateEvaluation(ctx context.Context, evaluation domain.Evaluation) (domain.Evaluation, error) {
	return Post[domain.Evaluation](ctx, c, "/api/evaluations", evaluation)
}

// MyEvaluationSummary aggregates the caller's own evaluations
func (c *APIClient) MyEvaluationSummary(ctx context.Context) (domain.EvaluationSummary, error) {
	return Get[domain.EvaluationSummary](ctx, c, "/api/evaluations/my-summary")
}

// Navigate asks the server where the caller may go for path
func (c *APIClient) Navigate(ctx context.Context, path string) (guard.Decision, error) {
	return Get[guard.Decision](ctx, c, "/api/navigate?path="+url.QueryEscape(path))
}

// ListNews returns the announcements, newest first
func (c *APIClient) ListNews(ctx context.Context) ([]domain.News, error) {
	return Get[[]domain.News](ctx, c, "/api/news")
}

// CreateNews publishes an announcement
func (c *APIClient) CreateNews(ctx context.Context, news domain.News) (domain.News, error) {
	return Post[domain.News](ctx, c, "/api/news", news)
}

// UpdateNews replaces an announcement
func (c *APIClient) UpdateNews(ctx context.Context, id string, news domain.News) (domain.News, error) {
	return Put[domain.News](ctx, c, "/api/news/"+escape(id), news)
}

// DeleteNews removes an announcement
func (c *APIClient) DeleteNews(ctx context.Context, id string) error {
	return Delete(ctx, c, "/api/news/"+escape(id))
}

// ListProjectPlans returns the caller's plans
func (c *APIClient) ListProjectPlans(ctx context.Context) ([]domain.ProjectPlan, error) {
	return Get[[]domain.ProjectPlan](ctx, c, "/api/project-plans")
}

// ListFriendPlans returns the plans of fellow interns
func (c *APIClient) ListFriendPlans(ctx context.Context) ([]domain.ProjectPlan, error) {
	return Get[[]domain.ProjectPlan](ctx, c, "/api/project-plans/friends")
}

// ListMentors returns the mentors a plan can be assigned to
func (c *APIClient) ListMentors(ctx context.Context) ([]domain.Mentor, error) {
	return Get[[]domain.Mentor](ctx, c, "/api/project-plans/mentors/list")
}

// CreateProjectPlan adds a plan
func (c *APIClient) CreateProjectPlan(ctx context.Context, plan domain.ProjectPlan) (domain.ProjectPlan, error) {
	return Post[domain.ProjectPlan](ctx, c, "/api/project-plans", plan)
}

// UpdateProjectPlan replaces a plan
func (c *APIClient) UpdateProjectPlan(ctx context.Context, id string, plan domain.ProjectPlan) (domain.ProjectPlan, error) {
	return Put[domain.ProjectPlan](ctx, c, "/api/project-plans/"+escape(id), plan)
}

// DeleteProjectPlan removes a plan
func (c *APIClient) DeleteProjectPlan(ctx context.Context, id string) error {
	return Delete(ctx, c, "/api/project-plans/"+escape(id))
}

// ListDocuments returns the documents attached to a plan
func (c *APIClient) ListDocuments(ctx context.Context, planID string) ([]domain.ProjectDocument, error) {
	return Get[[]domain.ProjectDocument](ctx, c, "/api/documents/plan/"+escape(planID))
}

// UploadRequest carries a file as base64
type UploadRequest struct {
	PlanID      string `json:"planId"`
	FileName    string `json:"fileName"`
	FileType    string `json:"fileType"`
	FileData    string `json:"fileData"`
	Description string `json:"description,omitempty"`
}

// UploadDocument attaches a file to a plan
func (c *APIClient) UploadDocument(ctx context.Context, planID, fileName string, data []byte, description string) (domain.ProjectDocument, error) {
	return Post[domain.ProjectDocument](ctx, c, "/api/documents/upload", UploadRequest{
		PlanID:      planID,
		FileName:    fileName,
		FileType:    domain.DocumentType(fileName),
		FileData:    base64.StdEncoding.EncodeToString(data),
		Description: description,
	})
}

// DeleteDocument removes a document
func (c *APIClient) DeleteDocument(ctx context.Context, id string) error {
	return Delete(ctx, c, "/api/documents/"+escape(id))
}
