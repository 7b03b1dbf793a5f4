package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alexflint/go-arg"
	"golang.org/x/term"

	"github.com/sweater-ventures/roster/app"
	"github.com/sweater-ventures/roster/client"
	"github.com/sweater-ventures/roster/model"
	"github.com/sweater-ventures/roster/query"
	"github.com/sweater-ventures/roster/resource"
)

type ListCmd struct {
	Search string `arg:"--search" help:"Case-insensitive text search"`
	Role   string `arg:"--role" help:"Only users with this role"`
	Active string `arg:"--active" help:"Only active (true) or inactive (false) users"`
	Sort   string `arg:"--sort" default:"createdAt" help:"Field to sort by"`
	Order  string `arg:"--order" default:"desc" help:"asc or desc"`
	Page   int    `arg:"--page" default:"1"`
	Limit  int    `arg:"--limit" default:"25"`
	All    bool   `arg:"--all" help:"Fetch every matching user in one page"`
}

type GetCmd struct {
	ID string `arg:"positional,required" help:"User id"`
}

type CreateCmd struct {
	Name      string  `arg:"--name,required"`
	Email     string  `arg:"--email,required"`
	Password  string  `arg:"--password" help:"Prompted for when omitted"`
	Role      string  `arg:"--role" default:"user"`
	Inactive  bool    `arg:"--inactive"`
	Latitude  float64 `arg:"--lat" default:"39.9334"`
	Longitude float64 `arg:"--lng" default:"32.8597"`
}

type DeleteCmd struct {
	IDs []string `arg:"positional,required" help:"User ids"`
}

type SeedCmd struct {
	Count int    `arg:"--count" default:"50" help:"Users to create"`
	Seed  uint64 `arg:"--seed" default:"123" help:"Generator seed"`
}

type args struct {
	URL     string        `arg:"--url,env:ROSTER_URL" default:"http://localhost:8005/api" help:"Roster API base URL"`
	Timeout time.Duration `arg:"--timeout" default:"10s"`

	List   *ListCmd   `arg:"subcommand:list" help:"List users"`
	Get    *GetCmd    `arg:"subcommand:get" help:"Show one user"`
	Create *CreateCmd `arg:"subcommand:create" help:"Create a user"`
	Delete *DeleteCmd `arg:"subcommand:delete" help:"Delete users"`
	Seed   *SeedCmd   `arg:"subcommand:seed" help:"Create generated users through the API"`
}

func (args) Description() string {
	return "rosterctl: command line client for the Roster users API"
}

func main() {
	var a args
	p := arg.MustParse(&a)

	api := client.New(a.URL, &http.Client{Timeout: a.Timeout})
	store, err := resource.NewStore(resource.Options{})
	if err != nil {
		fail(err)
	}
	users := resource.NewClient[model.User](store, api, app.UsersResource)
	ctx := context.Background()

	switch {
	case a.List != nil:
		err = runList(ctx, users, a.List)
	case a.Get != nil:
		err = runGet(ctx, users, a.Get)
	case a.Create != nil:
		err = runCreate(ctx, users, a.Create)
	case a.Delete != nil:
		err = runDelete(ctx, users, a.Delete)
	case a.Seed != nil:
		err = runSeed(ctx, users, a.Seed)
	default:
		p.WriteUsage(os.Stdout)
		fmt.Println()
		p.WriteHelp(os.Stdout)
		os.Exit(1)
	}
	if err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func runList(ctx context.Context, users *resource.Client[model.User], cmd *ListCmd) error {
	q := query.New().WithSearch(strings.TrimSpace(cmd.Search))
	if cmd.Role != "" {
		q = q.WithFilter("role", query.String(cmd.Role))
	}
	if cmd.Active != "" {
		q = q.WithFilter("active", query.Bool(cmd.Active == "true"))
	}
	if cmd.Sort != "" {
		q = q.WithSort(cmd.Sort, query.Order(cmd.Order))
	}
	if cmd.All {
		q = q.WithAll()
	} else {
		q = q.WithPage(cmd.Page, cmd.Limit)
	}

	list, err := users.ListRead(ctx, q)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE\tACTIVE\tCREATED")
	for _, u := range list.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%s\n", u.ID, u.Name, u.Email, u.Role, u.Active, u.CreatedAt.Format(time.DateTime))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "page %d of %d, %d total\n", list.Meta.Page, list.Meta.TotalPages, list.Meta.Total)
	return nil
}

func runGet(ctx context.Context, users *resource.Client[model.User], cmd *GetCmd) error {
	u, err := users.DetailRead(ctx, cmd.ID)
	if errors.Is(err, client.ErrNotFound) {
		return fmt.Errorf("no user %s", cmd.ID)
	}
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\t%s\n", u.ID)
	fmt.Fprintf(tw, "Name\t%s\n", u.Name)
	fmt.Fprintf(tw, "Email\t%s\n", u.Email)
	fmt.Fprintf(tw, "Role\t%s\n", u.Role.Label())
	fmt.Fprintf(tw, "Active\t%t\n", u.Active)
	fmt.Fprintf(tw, "Location\t%.4f, %.4f\n", u.Location.Latitude, u.Location.Longitude)
	fmt.Fprintf(tw, "Created\t%s\n", u.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(tw, "Updated\t%s\n", u.UpdatedAt.Format(time.RFC3339))
	return tw.Flush()
}

func readPassword() (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", errors.New("--password is required when stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, "Password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func runCreate(ctx context.Context, users *resource.Client[model.User], cmd *CreateCmd) error {
	in := model.UserInput{
		Name:     cmd.Name,
		Email:    cmd.Email,
		Password: cmd.Password,
		Role:     model.Role(cmd.Role),
		Active:   !cmd.Inactive,
		Location: model.Location{Latitude: cmd.Latitude, Longitude: cmd.Longitude},
	}
	if in.Password == "" {
		pw, err := readPassword()
		if err != nil {
			return err
		}
		in.Password = pw
	}
	if err := in.Validate(model.FormCreate); err != nil {
		return err
	}
	if s := model.MeasurePassword(in.Password); s.Level == model.Weak {
		fmt.Fprintln(os.Stderr, "warning: weak password")
	}

	u, err := users.Create(ctx, in)
	if err != nil {
		return err
	}
	fmt.Println(u.ID)
	return nil
}

func runDelete(ctx context.Context, users *resource.Client[model.User], cmd *DeleteCmd) error {
	var failed int
	for _, id := range cmd.IDs {
		if err := users.Delete(ctx, id); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", id, err)
			failed++
			continue
		}
		fmt.Printf("deleted %s\n", id)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d deletes failed", failed, len(cmd.IDs))
	}
	return nil
}

func runSeed(ctx context.Context, users *resource.Client[model.User], cmd *SeedCmd) error {
	gen := app.NewUserGenerator(cmd.Seed, time.Now())
	start := time.Now()
	for i := range cmd.Count {
		body, _, _ := gen.Next()
		if _, err := users.Create(ctx, body); err != nil {
			return fmt.Errorf("user %d: %w", i+1, err)
		}
		fmt.Fprintf(os.Stderr, "\rCreated: %d/%d", i+1, cmd.Count)
	}
	fmt.Fprintf(os.Stderr, "\rCreated %d users in %.1fs\n", cmd.Count, time.Since(start).Seconds())
	return nil
}
