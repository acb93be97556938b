package client

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/gistda/internhub/internal/domain"
)

// Collection caches the last list fetched for one resource. Errors are
// remembered in LastError and still returned to the caller.
type Collection[T any] struct {
	mu      sync.RWMutex
	items   []T
	lastErr error
	idOf    func(T) string
	logger  *slog.Logger
	name    string
}

func newCollection[T any](name string, idOf func(T) string, logger *slog.Logger) *Collection[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collection[T]{idOf: idOf, logger: logger, name: name}
}

// Items returns a copy of the cached list
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

// LastError is the error of the most recent failed call, nil after a success
func (c *Collection[T]) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Find returns the cached item with the given id
func (c *Collection[T]) Find(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, item := range c.items {
		if c.idOf(item) == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

func (c *Collection[T]) record(op string, err error) error {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
	if err != nil {
		c.logger.Error("resource call failed",
			slog.String("resource", c.name),
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%s %s: %w", op, c.name, err)
	}
	return nil
}

func (c *Collection[T]) replace(items []T) {
	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
}

func (c *Collection[T]) filter(keep func(T) bool) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []T
	for _, item := range c.items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func (c *Collection[T]) add(item T) {
	c.mu.Lock()
	c.items = append(c.items, item)
	c.mu.Unlock()
}

func (c *Collection[T]) prepend(item T) {
	c.mu.Lock()
	c.items = append([]T{item}, c.items...)
	c.mu.Unlock()
}

// upsert swaps the cached copy of item; unknown ids are left out
func (c *Collection[T]) upsert(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.idOf(item)
	for i := range c.items {
		if c.idOf(c.items[i]) == id {
			c.items[i] = item
			return
		}
	}
}

func (c *Collection[T]) remove(id string) {
	c.mu.Lock()
	c.items = slices.DeleteFunc(c.items, func(item T) bool { return c.idOf(item) == id })
	c.mu.Unlock()
}

// Courses caches the course list
type Courses struct {
	*Collection[domain.Course]
	api *APIClient
	now func() time.Time
}

// NewCourses creates a course store
func NewCourses(api *APIClient, logger *slog.Logger) *Courses {
	return &Courses{
		Collection: newCollection("courses", func(c domain.Course) string { return c.ID }, logger),
		api:        api,
		now:        time.Now,
	}
}

// Fetch reloads every course
func (s *Courses) Fetch(ctx context.Context) error {
	courses, err := s.api.ListCourses(ctx)
	if err == nil {
		s.replace(courses)
	}
	return s.record("fetch", err)
}

// Create adds a course with no lessons and returns its id
func (s *Courses) Create(ctx context.Context, title, description string) (string, error) {
	course, err := s.api.CreateCourse(ctx, domain.Course{Title: title, Description: description, Lessons: []domain.Lesson{}})
	if err != nil {
		return "", s.record("create", err)
	}
	s.add(course)
	return course.ID, s.record("create", nil)
}

// Update patches a course
func (s *Courses) Update(ctx context.Context, id string, patch domain.CoursePatch) error {
	course, err := s.api.UpdateCourse(ctx, id, patch)
	if err == nil {
		s.upsert(course)
	}
	return s.record("update", err)
}

// Delete removes a course
func (s *Courses) Delete(ctx context.Context, id string) error {
	err := s.api.DeleteCourse(ctx, id)
	if err == nil {
		s.remove(id)
	}
	return s.record("delete", err)
}

// AddLesson appends a lesson to a cached course. Unknown courses are ignored.
func (s *Courses) AddLesson(ctx context.Context, courseID string, lesson domain.Lesson) error {
	course, ok := s.Find(courseID)
	if !ok {
		return nil
	}
	lesson.ID = fmt.Sprintf("l%d", s.now().UnixMilli())
	lessons := append(slices.Clone(course.Lessons), lesson)
	return s.Update(ctx, courseID, domain.CoursePatch{Lessons: &lessons})
}

// UpdateLesson patches one lesson then refreshes the list
func (s *Courses) UpdateLesson(ctx context.Context, courseID, lessonID string, patch domain.LessonPatch) error {
	if _, err := s.api.UpdateLesson(ctx, courseID, lessonID, patch); err != nil {
		return s.record("update lesson", err)
	}
	return s.Fetch(ctx)
}

// DeleteLesson drops a lesson from a cached course. Unknown courses are ignored.
func (s *Courses) DeleteLesson(ctx context.Context, courseID, lessonID string) error {
	course, ok := s.Find(courseID)
	if !ok {
		return nil
	}
	lessons := slices.DeleteFunc(slices.Clone(course.Lessons), func(l domain.Lesson) bool { return l.ID == lessonID })
	return s.Update(ctx, courseID, domain.CoursePatch{Lessons: &lessons})
}

// Gallery caches project submissions
type Gallery struct {
	*Collection[domain.Submission]
	api *APIClient
}

// NewGallery creates a submission store
func NewGallery(api *APIClient, logger *slog.Logger) *Gallery {
	return &Gallery{
		Collection: newCollection("submissions", func(s domain.Submission) string { return s.ID }, logger),
		api:        api,
	}
}

// Fetch reloads every submission
func (g *Gallery) Fetch(ctx context.Context) error {
	subs, err := g.api.ListSubmissions(ctx)
	if err == nil {
		g.replace(subs)
	}
	return g.record("fetch", err)
}

// Published lists the submissions shown in the public gallery
func (g *Gallery) Published() []domain.Submission {
	return g.filter(func(s domain.Submission) bool { return s.Status == domain.SubmissionPublished })
}

// Pending lists the submissions awaiting review
func (g *Gallery) Pending() []domain.Submission {
	return g.filter(func(s domain.Submission) bool { return s.Status == domain.SubmissionPending })
}

// Mine lists the submissions of one student
func (g *Gallery) Mine(userID string) []domain.Submission {
	return g.filter(func(s domain.Submission) bool { return s.StudentID == userID })
}

// Submit creates a submission and returns its id
func (g *Gallery) Submit(ctx context.Context, submission domain.Submission) (string, error) {
	created, err := g.api.CreateSubmission(ctx, submission)
	if err != nil {
		return "", g.record("create", err)
	}
	g.add(created)
	return created.ID, g.record("create", nil)
}

// SetStatus moves a submission through review
func (g *Gallery) SetStatus(ctx context.Context, id string, status domain.SubmissionStatus) error {
	updated, err := g.api.UpdateSubmission(ctx, id, domain.SubmissionPatch{Status: &status})
	if err == nil {
		g.upsert(updated)
	}
	return g.record("update", err)
}

// Delete removes a submission
func (g *Gallery) Delete(ctx context.Context, id string) error {
	err := g.api.DeleteSubmission(ctx, id)
	if err == nil {
		g.remove(id)
	}
	return g.record("delete", err)
}

// Evaluations caches evaluations and the caller's own summary
type Evaluations struct {
	*Collection[domain.Evaluation]
	api *APIClient

	mu      sync.RWMutex
	summary *domain.EvaluationSummary
}

// NewEvaluations creates an evaluation store
func NewEvaluations(api *APIClient, logger *slog.Logger) *Evaluations {
	return &Evaluations{
		Collection: newCollection("evaluations", func(e domain.Evaluation) string { return e.ID }, logger),
		api:        api,
	}
}

// Fetch reloads the evaluations. A failure is only recorded in LastError.
func (s *Evaluations) Fetch(ctx context.Context) {
	evals, err := s.api.ListEvaluations(ctx)
	if err == nil {
		s.replace(evals)
	}
	_ = s.record("fetch", err)
}

// Create records an evaluation
func (s *Evaluations) Create(ctx context.Context, evaluation domain.Evaluation) (domain.Evaluation, error) {
	created, err := s.api.CreateEvaluation(ctx, evaluation)
	if err != nil {
		return created, s.record("create", err)
	}
	s.add(created)
	return created, s.record("create", nil)
}

// FetchSummary loads the caller's evaluation summary
func (s *Evaluations) FetchSummary(ctx context.Context) (domain.EvaluationSummary, error) {
	summary, err := s.api.MyEvaluationSummary(ctx)
	if err != nil {
		return summary, s.record("summary", err)
	}
	s.mu.Lock()
	s.summary = &summary
	s.mu.Unlock()
	return summary, s.record("summary", nil)
}

// Summary returns the last fetched summary, nil before the first fetch
func (s *Evaluations) Summary() *domain.EvaluationSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary
}

const featuredNews = 3

// News caches announcements
type News struct {
	*Collection[domain.News]
	api *APIClient
}

// NewNews creates a news store
func NewNews(api *APIClient, logger *slog.Logger) *News {
	return &News{
		Collection: newCollection("news", func(n domain.News) string { return n.ID }, logger),
		api:        api,
	}
}

// Fetch reloads the announcements
func (s *News) Fetch(ctx context.Context) error {
	news, err := s.api.ListNews(ctx)
	if err == nil {
		s.replace(news)
	}
	return s.record("fetch", err)
}

// Featured returns the first three announcements
func (s *News) Featured() []domain.News {
	items := s.Items()
	if len(items) > featuredNews {
		items = items[:featuredNews]
	}
	return items
}

// Create publishes an announcement at the top of the list
func (s *News) Create(ctx context.Context, news domain.News) (string, error) {
	created, err := s.api.CreateNews(ctx, news)
	if err != nil {
		return "", s.record("create", err)
	}
	s.prepend(created)
	return created.ID, s.record("create", nil)
}

// Update replaces an announcement
func (s *News) Update(ctx context.Context, id string, news domain.News) error {
	updated, err := s.api.UpdateNews(ctx, id, news)
	if err == nil {
		s.upsert(updated)
	}
	return s.record("update", err)
}

// Delete removes an announcement
func (s *News) Delete(ctx context.Context, id string) error {
	err := s.api.DeleteNews(ctx, id)
	if err == nil {
		s.remove(id)
	}
	return s.record("delete", err)
}

// ProjectPlans caches project plans and the assignable mentors
type ProjectPlans struct {
	*Collection[domain.ProjectPlan]
	api *APIClient

	mu      sync.RWMutex
	mentors []domain.Mentor
}

// NewProjectPlans creates a project plan store
func NewProjectPlans(api *APIClient, logger *slog.Logger) *ProjectPlans {
	return &ProjectPlans{
		Collection: newCollection("project plans", func(p domain.ProjectPlan) string { return p.ID }, logger),
		api:        api,
	}
}

// Fetch loads the caller's plans
func (s *ProjectPlans) Fetch(ctx context.Context) error {
	plans, err := s.api.ListProjectPlans(ctx)
	if err == nil {
		s.replace(plans)
	}
	return s.record("fetch", err)
}

// FetchFriends loads the plans of fellow interns in place of the caller's
func (s *ProjectPlans) FetchFriends(ctx context.Context) error {
	plans, err := s.api.ListFriendPlans(ctx)
	if err == nil {
		s.replace(plans)
	}
	return s.record("fetch friends", err)
}

// FetchMentors loads the assignable mentors
func (s *ProjectPlans) FetchMentors(ctx context.Context) error {
	mentors, err := s.api.ListMentors(ctx)
	if err == nil {
		s.mu.Lock()
		s.mentors = mentors
		s.mu.Unlock()
	}
	return s.record("fetch mentors", err)
}

// Mentors returns the cached mentors
func (s *ProjectPlans) Mentors() []domain.Mentor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.mentors)
}

// Create adds a plan at the top of the list
func (s *ProjectPlans) Create(ctx context.Context, plan domain.ProjectPlan) (string, error) {
	created, err := s.api.CreateProjectPlan(ctx, plan)
	if err != nil {
		return "", s.record("create", err)
	}
	s.prepend(created)
	return created.ID, s.record("create", nil)
}

// Update replaces a plan
func (s *ProjectPlans) Update(ctx context.Context, id string, plan domain.ProjectPlan) (domain.ProjectPlan, error) {
	updated, err := s.api.UpdateProjectPlan(ctx, id, plan)
	if err != nil {
		return updated, s.record("update", err)
	}
	s.upsert(updated)
	return updated, s.record("update", nil)
}

// Delete removes a plan
func (s *ProjectPlans) Delete(ctx context.Context, id string) error {
	err := s.api.DeleteProjectPlan(ctx, id)
	if err == nil {
		s.remove(id)
	}
	return s.record("delete", err)
}

// Documents caches plan attachments across plans
type Documents struct {
	*Collection[domain.ProjectDocument]
	api *APIClient
}

// NewDocuments creates a document store
func NewDocuments(api *APIClient, logger *slog.Logger) *Documents {
	return &Documents{
		Collection: newCollection("documents", func(d domain.ProjectDocument) string { return d.ID }, logger),
		api:        api,
	}
}

// ForPlan returns the cached documents of one plan
func (s *Documents) ForPlan(planID string) []domain.ProjectDocument {
	return s.filter(func(d domain.ProjectDocument) bool { return d.PlanID == planID })
}

// FetchForPlan replaces the cached documents of one plan. A failure is only
// recorded in LastError.
func (s *Documents) FetchForPlan(ctx context.Context, planID string) {
	docs, err := s.api.ListDocuments(ctx, planID)
	if err == nil {
		kept := s.filter(func(d domain.ProjectDocument) bool { return d.PlanID != planID })
		s.replace(append(kept, docs...))
	}
	_ = s.record("fetch", err)
}

// Upload attaches a file to a plan
func (s *Documents) Upload(ctx context.Context, planID, fileName string, data []byte, description string) (domain.ProjectDocument, error) {
	doc, err := s.api.UploadDocument(ctx, planID, fileName, data, description)
	if err != nil {
		return doc, s.record("upload", err)
	}
	s.add(doc)
	return doc, s.record("upload", nil)
}

// Delete removes a document
func (s *Documents) Delete(ctx context.Context, id string) error {
	err := s.api.DeleteDocument(ctx, id)
	if err == nil {
		s.remove(id)
	}
	return s.record("delete", err)
}
