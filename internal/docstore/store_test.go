package docstore

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gistda/internhub/internal/domain"
	"github.com/gistda/internhub/internal/infrastructure/logger"
	"github.com/gistda/internhub/internal/storage"
)

var fixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T, seed bool) (*Store, *storage.Memory) {
	t.Helper()
	kv := storage.NewMemory()
	s := New(kv, Config{Seed: seed, Now: func() time.Time { return fixedNow }}, logger.Discard())
	return s, kv
}

func scores(v int) domain.EvaluationScores {
	return domain.EvaluationScores{
		QuantityOfWork: v, QualityOfWork: v, AcademicAbility: v, AbilityToLearn: v,
		JudgmentAndDecision: v, OrganizationAndPlanning: v, CommunicationSkills: v, SuitabilityForJob: v,
		Responsibility: v, InterestInWork: v, Initiative: v, ResponseToSupervision: v,
		Personality: v, InterpersonalSkills: v, Discipline: v, EthicsAndMorality: v,
	}
}

func TestListEmptyWhenUnseeded(t *testing.T) {
	s, kv := newTestStore(t, false)
	ctx := context.Background()

	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if users == nil || len(users) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", users)
	}
	evaluations, _ := s.ListEvaluations(ctx)
	if evaluations == nil || len(evaluations) != 0 {
		t.Fatalf("expected empty evaluations, got %#v", evaluations)
	}
	if kv.Len() != 0 {
		t.Fatalf("reads on an unseeded store should not write")
	}
}

func TestSeededLoginAsAdmin(t *testing.T) {
	s, _ := newTestStore(t, true)

	res, err := s.Login(context.Background(), "admin@example.com", "password")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !res.OK || res.User == nil || res.User.Role != domain.RoleAdmin {
		t.Fatalf("expected admin login, got %+v", res)
	}
	if res.Token != "mock-token-u1" {
		t.Fatalf("unexpected token %q", res.Token)
	}
	if res.User.Password != "" {
		t.Fatalf("login must not return the password")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s, _ := newTestStore(t, true)

	res, err := s.Login(context.Background(), "admin@example.com", "wrong")
	if err != nil {
		t.Fatalf("bad credentials are not an error: %v", err)
	}
	if res.OK || res.Message != "Invalid credentials" || res.Token != "" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestSeedContents(t *testing.T) {
	s, _ := newTestStore(t, true)
	doc, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(doc.Users) != 3 || len(doc.Courses) != 2 || len(doc.Submissions) != 1 {
		t.Fatalf("unexpected seed sizes: %d users, %d courses, %d submissions",
			len(doc.Users), len(doc.Courses), len(doc.Submissions))
	}
	if doc.Evaluations != nil {
		t.Fatalf("evaluations are never seeded")
	}
	intern := doc.Users[1]
	if intern.Role != domain.RoleIntern || intern.NeedsOnboarding() {
		t.Fatalf("seeded intern should have a complete profile: %+v", intern)
	}
	if doc.Submissions[0].Status != domain.SubmissionPublished {
		t.Fatalf("seeded submission should be published")
	}
}

func TestSeedIsNotReapplied(t *testing.T) {
	s, _ := newTestStore(t, true)
	ctx := context.Background()

	for _, id := range []string{"c1", "c2"} {
		if err := s.DeleteCourse(ctx, id); err != nil {
			t.Fatalf("delete course: %v", err)
		}
	}
	courses, err := s.ListCourses(ctx)
	if err != nil {
		t.Fatalf("list courses: %v", err)
	}
	if len(courses) != 0 {
		t.Fatalf("emptied collection was reseeded: %+v", courses)
	}
}

func TestSeedFillsOnlyAbsentCollections(t *testing.T) {
	s, kv := newTestStore(t, true)
	ctx := context.Background()
	_ = kv.Put(ctx, DefaultKey, []byte(`{"users":[{"id":"u9","name":"Only","email":"only@example.com","role":"mentor"}],"submissions":[]}`))

	doc, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(doc.Users) != 1 || doc.Users[0].ID != "u9" {
		t.Fatalf("existing users were replaced: %+v", doc.Users)
	}
	if len(doc.Courses) != 2 {
		t.Fatalf("absent courses should be seeded, got %d", len(doc.Courses))
	}
	if len(doc.Submissions) != 0 {
		t.Fatalf("present but empty submissions should stay empty")
	}
}

func TestEmptyPatchIsNoop(t *testing.T) {
	s, _ := newTestStore(t, true)
	ctx := context.Background()
	ev, err := s.CreateEvaluation(ctx, domain.Evaluation{InternID: "u2", MentorID: "u1", EvaluationScores: scores(4)})
	if err != nil {
		t.Fatalf("create evaluation: %v", err)
	}

	user, _ := s.GetUser(ctx, "u2")
	updatedUser, err := s.UpdateUser(ctx, "u2", domain.UserPatch{})
	if err != nil || !reflect.DeepEqual(user, updatedUser) {
		t.Fatalf("user changed by empty patch: %+v vs %+v (%v)", user, updatedUser, err)
	}

	course, _ := s.GetCourse(ctx, "c1")
	updatedCourse, err := s.UpdateCourse(ctx, "c1", domain.CoursePatch{})
	if err != nil || !reflect.DeepEqual(course, updatedCourse) {
		t.Fatalf("course changed by empty patch: %+v vs %+v (%v)", course, updatedCourse, err)
	}

	sub, _ := s.GetSubmission(ctx, "s1")
	updatedSub, err := s.UpdateSubmission(ctx, "s1", domain.SubmissionPatch{})
	if err != nil || !reflect.DeepEqual(sub, updatedSub) {
		t.Fatalf("submission changed by empty patch: %+v vs %+v (%v)", sub, updatedSub, err)
	}

	updatedEv, err := s.UpdateEvaluation(ctx, ev.ID, domain.EvaluationPatch{})
	if err != nil || !reflect.DeepEqual(ev, updatedEv) {
		t.Fatalf("evaluation changed by empty patch: %+v vs %+v (%v)", ev, updatedEv, err)
	}
}

func TestCreateSubmissionRoundTrip(t *testing.T) {
	s, _ := newTestStore(t, true)
	ctx := context.Background()
	input := domain.Submission{
		Title:       "Flood mapping",
		Abstract:    "SAR based flood extent",
		StudentName: "Intern User",
		StudentID:   "u2",
		ImageURL:    "https://example.com/flood.png",
		Status:      domain.SubmissionPublished,
		Links:       []domain.Link{{Label: "repo", URL: "https://example.com/repo"}},
	}

	created, err := s.CreateSubmission(ctx, input)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	want := input
	want.ID = "s" + fmt.Sprint(fixedNow.UnixMilli())
	want.Status = domain.SubmissionPending
	want.SubmittedAt = fixedNow
	if !reflect.DeepEqual(created, want) {
		t.Fatalf("created %+v, want %+v", created, want)
	}

	all, _ := s.ListSubmissions(ctx)
	matches := 0
	for _, sub := range all {
		if sub.ID == created.ID {
			matches++
			if !reflect.DeepEqual(sub, want) {
				t.Fatalf("listed %+v, want %+v", sub, want)
			}
		}
	}
	if matches != 1 {
		t.Fatalf("expected exactly one listed record, got %d", matches)
	}
}

func TestDuplicateEmailRejected(t *testing.T) {
	s, _ := newTestStore(t, true)
	ctx := context.Background()

	if _, err := s.CreateUser(ctx, domain.User{Name: "A", Email: "dup@example.com", Role: domain.RoleIntern}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	before, _ := s.ListUsers(ctx)
	_, err := s.CreateUser(ctx, domain.User{Name: "B", Email: "dup@example.com", Role: domain.RoleMentor})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "email already exists") {
		t.Fatalf("unexpected message %q", err)
	}
	after, _ := s.ListUsers(ctx)
	if len(after) != len(before) {
		t.Fatalf("collection size changed from %d to %d", len(before), len(after))
	}
}

func TestUpdateEmailToExistingRejected(t *testing.T) {
	s, _ := newTestStore(t, true)
	email := "admin@example.com"
	_, err := s.UpdateUser(context.Background(), "u3", domain.UserPatch{Email: &email})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteMissingSubmissionIsNoop(t *testing.T) {
	s, _ := newTestStore(t, true)
	ctx := context.Background()
	before, _ := s.ListSubmissions(ctx)

	if err := s.DeleteSubmission(ctx, "does-not-exist"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	after, _ := s.ListSubmissions(ctx)
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("collection changed: %+v -> %+v", before, after)
	}
}

func TestUpdateMissingIsNotFound(t *testing.T) {
	s, _ := newTestStore(t, true)
	ctx := context.Background()
	name := "x"

	cases := []struct {
		entity string
		call   func() error
	}{
		{"user", func() error { _, err := s.UpdateUser(ctx, "nope", domain.UserPatch{Name: &name}); return err }},
		{"course", func() error { _, err := s.UpdateCourse(ctx, "nope", domain.CoursePatch{Title: &name}); return err }},
		{"submission", func() error {
			_, err := s.UpdateSubmission(ctx, "nope", domain.SubmissionPatch{Title: &name})
			return err
		}},
		{"evaluation", func() error {
			_, err := s.UpdateEvaluation(ctx, "nope", domain.EvaluationPatch{Comment: &name})
			return err
		}},
	}
	for _, tc := range cases {
		err := tc.call()
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("%s: expected not found, got %v", tc.entity, err)
		}
		if err.Error() != tc.entity+" not found" {
			t.Fatalf("%s: unexpected message %q", tc.entity, err)
		}
	}
}

func TestIDsUniqueWithinSameMillisecond(t *testing.T) {
	s, _ := newTestStore(t, false)
	ctx := context.Background()

	a, _ := s.CreateCourse(ctx, domain.Course{Title: "A"})
	b, _ := s.CreateCourse(ctx, domain.Course{Title: "B"})
	if a.ID == b.ID {
		t.Fatalf("ids collided: %s", a.ID)
	}
	if !strings.HasPrefix(a.ID, "c") || !strings.HasPrefix(b.ID, "c") {
		t.Fatalf("ids should carry the type prefix: %s %s", a.ID, b.ID)
	}
}

func TestConcurrentCreatesAreNotLost(t *testing.T) {
	s, _ := newTestStore(t, false)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.CreateCourse(ctx, domain.Course{Title: fmt.Sprintf("course %d", i)}); err != nil {
				t.Errorf("create: %v", err)
			}
		}(i)
	}
	wg.Wait()

	courses, _ := s.ListCourses(ctx)
	if len(courses) != 20 {
		t.Fatalf("expected 20 courses, got %d", len(courses))
	}
	seen := map[string]bool{}
	for _, c := range courses {
		if seen[c.ID] {
			t.Fatalf("duplicate id %s", c.ID)
		}
		seen[c.ID] = true
	}
}

func TestUpdateLesson(t *testing.T) {
	s, _ := newTestStore(t, true)
	ctx := context.Background()
	title := "Orbital Mechanics"

	course, err := s.UpdateLesson(ctx, "c1", "l2", domain.LessonPatch{Title: &title})
	if err != nil {
		t.Fatalf("update lesson: %v", err)
	}
	lesson, ok := course.Lesson("l2")
	if !ok || lesson.Title != title || lesson.Content != "Content about orbits..." {
		t.Fatalf("unexpected lesson %+v", lesson)
	}
	if _, err := s.UpdateLesson(ctx, "c1", "l9", domain.LessonPatch{Title: &title}); err == nil || err.Error() != "lesson not found" {
		t.Fatalf("expected lesson not found, got %v", err)
	}
}

func TestCreateCourseAssignsLessonIDs(t *testing.T) {
	s, _ := newTestStore(t, true)
	course, err := s.CreateCourse(context.Background(), domain.Course{
		Title:   "Remote Sensing",
		Lessons: []domain.Lesson{{Title: "Bands"}, {Title: "Indices"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if course.Lessons[0].ID == "" || course.Lessons[0].ID == course.Lessons[1].ID {
		t.Fatalf("lesson ids not assigned uniquely: %+v", course.Lessons)
	}
}

func TestEvaluationScoresValidated(t *testing.T) {
	s, _ := newTestStore(t, true)
	_, err := s.CreateEvaluation(context.Background(), domain.Evaluation{InternID: "u2", EvaluationScores: scores(6)})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEvaluationSummary(t *testing.T) {
	s, _ := newTestStore(t, true)
	ctx := context.Background()

	empty, _ := s.EvaluationSummary(ctx, "u2")
	if empty.HasEvaluations || empty.ScoreStatus != "no_evaluations" {
		t.Fatalf("unexpected empty summary %+v", empty)
	}

	_, _ = s.CreateEvaluation(ctx, domain.Evaluation{InternID: "u2", MentorID: "u1", EvaluationScores: scores(5)})
	_, _ = s.CreateEvaluation(ctx, domain.Evaluation{InternID: "u2", MentorID: "u1", EvaluationScores: scores(4)})
	_, _ = s.CreateEvaluation(ctx, domain.Evaluation{InternID: "u9", MentorID: "u1", EvaluationScores: scores(1)})

	summary, err := s.EvaluationSummary(ctx, "u2")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.EvaluationCount != 2 || summary.AverageScore != 4.5 || summary.ScoreStatus != "excellent" {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.LastEvaluationDate == nil || !summary.LastEvaluationDate.Equal(fixedNow) {
		t.Fatalf("unexpected last date %v", summary.LastEvaluationDate)
	}
}

func TestLoadSessionUser(t *testing.T) {
	s, _ := newTestStore(t, true)
	ctx := context.Background()

	user, err := s.LoadSessionUser(ctx, "u2", "mock-token-u2")
	if err != nil || user.ID != "u2" || user.Password != "" {
		t.Fatalf("unexpected user %+v (%v)", user, err)
	}
	if _, err := s.LoadSessionUser(ctx, "u2", "mock-token-u1"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
	if _, err := s.LoadSessionUser(ctx, "u42", "mock-token-u42"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLatencyHonoursCancellation(t *testing.T) {
	s := New(storage.NewMemory(), Config{Latency: time.Hour}, logger.Discard())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := s.ListUsers(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

type failingKV struct{ storage.KV }

func (failingKV) Get(context.Context, string) ([]byte, error) { return nil, errors.New("disk on fire") }

func TestStorageErrorsPropagate(t *testing.T) {
	s := New(failingKV{storage.NewMemory()}, Config{Seed: true}, logger.Discard())
	_, err := s.ListCourses(context.Background())
	if err == nil || !strings.Contains(err.Error(), "disk on fire") {
		t.Fatalf("expected wrapped storage error, got %v", err)
	}
}
