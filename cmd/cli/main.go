package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/gistda/internhub/internal/client"
	"github.com/gistda/internhub/internal/domain"
	"github.com/gistda/internhub/internal/infrastructure/logger"
	"github.com/gistda/internhub/internal/media"
	"github.com/gistda/internhub/pkg/config"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	level := cfg.LogLevel
	if os.Getenv("LOG_LEVEL") == "" {
		level = "warn"
	}
	e := newEnv(cfg, logger.New(os.Stderr, level))
	defer e.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "auth":
		err = handleAuth(ctx, e, args)
	case "users":
		err = listUsers(ctx, e)
	case "courses":
		err = handleCourses(ctx, e, args)
	case "gallery":
		err = listGallery(ctx, e, args)
	case "evaluations":
		err = handleEvaluations(ctx, e, args)
	case "docs":
		err = handleDocs(ctx, e, args)
	case "navigate":
		err = navigate(ctx, e, args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ %v\n", err)
		os.Exit(1)
	}
}

func handleAuth(ctx context.Context, e *env, args []string) error {
	if len(args) < 1 {
		fmt.Println("Usage: internhub auth <register|login|logout|who>")
		return nil
	}

	switch args[0] {
	case "register":
		return registerUser(ctx, e, args[1:])
	case "login":
		return loginUser(ctx, e, args[1:])
	case "logout":
		return logoutUser(ctx, e)
	case "who":
		return whoAmI(ctx, e)
	default:
		return fmt.Errorf("unknown auth command: %s", args[0])
	}
}

func registerUser(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "user email")
	password := fs.String("password", "", "password")
	role := fs.String("role", string(domain.RoleIntern), "intern, mentor or external")
	fs.Parse(args)

	if *email == "" || *password == "" {
		fs.PrintDefaults()
		return errors.New("email and password are required")
	}

	res, err := e.api.Register(ctx, client.RegisterRequest{
		Name:     *name,
		Email:    *email,
		Password: *password,
		Role:     domain.Role(*role),
	})
	if err := e.remoteOnly(err); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	if !res.OK {
		return fmt.Errorf("registration failed: %s", res.Message)
	}
	if err := saveToken(res.Token); err != nil {
		return err
	}
	fmt.Printf("✓ User registered: %s (%s)\n", res.User.Email, res.User.Role)
	return nil
}

func loginUser(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "user email")
	password := fs.String("password", "", "password")
	fs.Parse(args)

	if *email == "" || *password == "" {
		fs.PrintDefaults()
		return errors.New("email and password are required")
	}

	var res domain.LoginResult
	err := e.run(ctx, func(src source) error {
		var err error
		res, err = src.Login(ctx, *email, *password)
		return err
	})
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if !res.OK {
		return fmt.Errorf("login failed: %s", res.Message)
	}
	if err := saveToken(res.Token); err != nil {
		return err
	}
	fmt.Printf("✓ Logged in as: %s (%s)\n", res.User.Email, res.User.Role)
	if res.User.NeedsOnboarding() {
		fmt.Println("  Complete your intern profile before using the platform.")
	}
	return nil
}

func logoutUser(ctx context.Context, e *env) error {
	if e.api.Token() != "" {
		if err := e.api.Logout(ctx); err != nil && !client.Unreachable(err) {
			e.log.Warn("remote logout failed", slog.String("error", err.Error()))
		}
	}
	if err := clearToken(); err != nil {
		return err
	}
	fmt.Println("✓ Logged out")
	return nil
}

func whoAmI(ctx context.Context, e *env) error {
	if e.api.Token() == "" {
		fmt.Println("Not logged in")
		return nil
	}
	me, err := e.api.Me(ctx)
	if err := e.remoteOnly(err); err != nil {
		return err
	}
	fmt.Printf("✓ %s <%s> (%s)\n", me.Name, me.Email, me.Role)
	return nil
}

func listUsers(ctx context.Context, e *env) error {
	var users []domain.User
	if err := e.run(ctx, func(src source) (err error) {
		users, err = src.ListUsers(ctx)
		return err
	}); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE\tONBOARDED")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\n", u.ID, u.Name, u.Email, u.Role, !u.NeedsOnboarding())
	}
	return w.Flush()
}

func handleCourses(ctx context.Context, e *env, args []string) error {
	var courses []domain.Course
	if err := e.run(ctx, func(src source) (err error) {
		courses, err = src.ListCourses(ctx)
		return err
	}); err != nil {
		return err
	}

	if len(args) == 0 || args[0] == "list" {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tLESSONS")
		for _, c := range courses {
			fmt.Fprintf(w, "%s\t%s\t%d\n", c.ID, c.Title, len(c.Lessons))
		}
		return w.Flush()
	}
	if args[0] != "show" || len(args) < 2 {
		fmt.Println("Usage: internhub courses <list|show <course-id>>")
		return nil
	}

	for _, c := range courses {
		if c.ID != args[1] {
			continue
		}
		fmt.Printf("%s\n%s\n\n", c.Title, c.Description)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tLESSON\tDURATION\tVIDEO\tTHUMBNAIL")
		for _, l := range c.Lessons {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", l.ID, l.Title, lessonDuration(l.Duration), videoID(l.VideoURL), media.Thumbnail(l.VideoURL, media.ThumbMedium))
		}
		return w.Flush()
	}
	return domain.NotFound("course")
}

func lessonDuration(raw string) string {
	if d := media.ParseISODuration(raw); d > 0 {
		return media.FormatDuration(d)
	}
	return raw
}

func videoID(url string) string {
	if id, ok := media.VideoID(url); ok {
		return id
	}
	return "-"
}

func listGallery(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("gallery", flag.ExitOnError)
	status := fs.String("status", string(domain.SubmissionPublished), "published, pending or all")
	fs.Parse(args)

	var subs []domain.Submission
	if err := e.run(ctx, func(src source) (err error) {
		subs, err = src.ListSubmissions(ctx)
		return err
	}); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTUDENT\tSTATUS\tSUBMITTED")
	for _, s := range subs {
		if *status != "all" && string(s.Status) != *status {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.Title, s.StudentName, s.Status, s.SubmittedAt.Format("2006-01-02"))
	}
	return w.Flush()
}

func handleEvaluations(ctx context.Context, e *env, args []string) error {
	if len(args) > 0 && args[0] == "summary" {
		return evaluationSummary(ctx, e, args[1:])
	}

	var evals []domain.Evaluation
	if err := e.run(ctx, func(src source) (err error) {
		evals, err = src.ListEvaluations(ctx)
		return err
	}); err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tINTERN\tMENTOR\tAVERAGE\tDATE")
	for _, ev := range evals {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\n", ev.ID, ev.InternID, ev.MentorName, ev.Average(), ev.CreatedAt.Format("2006-01-02"))
	}
	return w.Flush()
}

// evaluationSummary asks the server for the caller's own summary, or
// computes one for -intern from the local store
func evaluationSummary(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	intern := fs.String("intern", "", "intern id (local store only)")
	fs.Parse(args)

	var (
		summary domain.EvaluationSummary
		err     error
	)
	if *intern == "" && !forceLocal() {
		summary, err = e.api.MyEvaluationSummary(ctx)
		if err = e.remoteOnly(err); err != nil {
			return err
		}
	} else {
		if *intern == "" {
			return errors.New("-intern is required with the local store")
		}
		local, err := e.openLocal(ctx)
		if err != nil {
			return err
		}
		if summary, err = local.EvaluationSummary(ctx, *intern); err != nil {
			return err
		}
	}

	if !summary.HasEvaluations {
		fmt.Println("No evaluations yet")
		return nil
	}
	fmt.Printf("Evaluations: %d\nAverage:     %.2f (%s)\n", summary.EvaluationCount, summary.AverageScore, summary.ScoreStatus)
	if summary.LastEvaluationDate != nil {
		fmt.Printf("Last:        %s\n", summary.LastEvaluationDate.Format("2006-01-02"))
	}
	return nil
}

func handleDocs(ctx context.Context, e *env, args []string) error {
	if len(args) < 1 {
		fmt.Println("Usage: internhub docs <list|upload|delete>")
		return nil
	}
	docs := client.NewDocuments(e.api, e.log)

	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("list", flag.ExitOnError)
		plan := fs.String("plan", "", "project plan id")
		fs.Parse(args[1:])
		if *plan == "" {
			return errors.New("-plan is required")
		}
		docs.FetchForPlan(ctx, *plan)
		if err := e.remoteOnly(docs.LastError()); err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tFILE\tTYPE\tSIZE\tUPLOADED")
		for _, d := range docs.ForPlan(*plan) {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", d.ID, d.FileName, d.FileType, domain.FormatFileSize(d.FileSize), d.UploadedAt.Format("2006-01-02"))
		}
		return w.Flush()

	case "upload":
		fs := flag.NewFlagSet("upload", flag.ExitOnError)
		plan := fs.String("plan", "", "project plan id")
		file := fs.String("file", "", "path of the file to attach")
		desc := fs.String("description", "", "optional description")
		fs.Parse(args[1:])
		if *plan == "" || *file == "" {
			return errors.New("-plan and -file are required")
		}
		data, err := os.ReadFile(*file)
		if err != nil {
			return err
		}
		doc, err := docs.Upload(ctx, *plan, filepath.Base(*file), data, *desc)
		if err := e.remoteOnly(err); err != nil {
			return err
		}
		fmt.Printf("✓ Uploaded %s (%s, %s)\n", doc.FileName, domain.DocumentType(doc.FileName), domain.FormatFileSize(int64(len(data))))
		return nil

	case "delete":
		if len(args) < 2 {
			return errors.New("usage: internhub docs delete <document-id>")
		}
		if err := e.remoteOnly(docs.Delete(ctx, args[1])); err != nil {
			return err
		}
		fmt.Println("✓ Deleted")
		return nil
	}
	return fmt.Errorf("unknown docs command: %s", args[0])
}

func navigate(ctx context.Context, e *env, args []string) error {
	if len(args) < 1 || !strings.HasPrefix(args[0], "/") {
		return errors.New("usage: internhub navigate </path>")
	}
	d, err := e.api.Navigate(ctx, args[0])
	if err := e.remoteOnly(err); err != nil {
		return err
	}
	fmt.Printf("%s -> %s (%s)\n", d.Action, d.Target, d.Reason)
	if d.LoggedOut {
		_ = clearToken()
		fmt.Println("  Session ended; log in again.")
	}
	return nil
}

func printUsage() {
	fmt.Print(`InternHub CLI

Usage:
  internhub <command> [options]

Commands:
  auth         User authentication (register, login, logout, who)
  users        List accounts (admin)
  courses      Course catalogue (list, show <id>)
  gallery      Project submissions (-status published|pending|all)
  evaluations  Mentor evaluations (list, summary)
  docs         Project plan documents (list, upload, delete)
  navigate     Ask where the current session may go for a path
  help         Show this help message

Environment Variables:
  INTERNHUB_API      API endpoint (default: http://localhost:8080)
  INTERNHUB_LOCAL    Use the local document store instead of the API
  STORAGE_BACKEND    Local store backend: file, redis or postgres (default: file)
  STORAGE_DIR        Directory of the file backend (default: ~/.internhub)

Examples:
  internhub auth login -email intern@example.com -password password
  internhub courses show c1
  internhub gallery -status all
  internhub docs upload -plan p1 -file report.pdf
`)
}
