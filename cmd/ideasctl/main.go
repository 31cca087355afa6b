// ideasctl is the terminal front end for the redgit idea tracker. It keeps
// the session credential in the local state directory, so login survives
// between invocations.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"redgit.org/internal/api"
	"redgit.org/internal/config"
	"redgit.org/internal/ideas"
	"redgit.org/internal/obs"
	"redgit.org/internal/session"
	"redgit.org/internal/store"
)

var version = "0.3.1"

// Fixed per-action messages; backend detail stays in the structured log.
const (
	msgLoginFailed    = "Could not log in, check your credentials and try again"
	msgRegisterFailed = "Could not register, try again"
	msgCreateFailed   = "Could not create idea, try again"
	msgUpdateFailed   = "Could not update idea, try again"
	msgDeleteFailed   = "Could not delete idea, try again"
	msgNotLoggedIn    = "Not logged in. Run 'ideasctl login' first"
)

type app struct {
	session *session.Manager
	ideas   *ideas.Store
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ideasctl: %v\n", err)
		os.Exit(1)
	}
	obs.Init()

	kv, err := store.OpenSQLite(cfg.StateDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ideasctl: %v\n", err)
		os.Exit(1)
	}
	defer kv.Close()

	a := &app{}
	a.session = session.New(newClient(cfg, "auth", cfg.AuthURL), kv)
	a.ideas = ideas.New(newClient(cfg, "ideas", cfg.IdeasURL), a.session)

	ctx, cancel := api.WithTimeout(context.Background(), 3*cfg.HTTPTimeout)
	defer cancel()

	if !a.run(ctx, os.Args[1], os.Args[2:]) {
		os.Exit(1)
	}
}

func newClient(cfg *config.Config, service, baseURL string) *api.Client {
	return api.NewClient(service, baseURL,
		api.WithRequestTimeout(cfg.HTTPTimeout),
		api.WithRateLimit(cfg.RatePerSec, cfg.RateBurst),
	)
}

func (a *app) run(ctx context.Context, command string, args []string) bool {
	switch command {
	case "register":
		return a.runRegister(ctx, args)
	case "login":
		return a.runLogin(ctx, args)
	case "logout":
		a.session.Logout()
		fmt.Println("Logged out")
		return true
	case "whoami":
		return a.runWhoami(ctx)
	case "list":
		return a.runList(ctx, false)
	case "mine":
		return a.runList(ctx, true)
	case "show":
		return a.runShow(ctx, args)
	case "create":
		return a.runCreate(ctx, args)
	case "update":
		return a.runUpdate(ctx, args)
	case "delete":
		return a.runDelete(ctx, args)
	case "version":
		fmt.Printf("ideasctl %s\n", version)
		return true
	default:
		usage()
		return false
	}
}

func (a *app) runRegister(ctx context.Context, args []string) bool {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	fs.Parse(args)

	if err := a.session.Register(ctx, *name, *email, *password); err != nil {
		return fail("session.register_failed", err, msgRegisterFailed)
	}
	u, _ := a.session.CurrentUser()
	fmt.Printf("Welcome, %s\n", u.Name)
	return true
}

func (a *app) runLogin(ctx context.Context, args []string) bool {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	fs.Parse(args)

	if err := a.session.Login(ctx, *email, *password); err != nil {
		return fail("session.login_failed", err, msgLoginFailed)
	}
	u, _ := a.session.CurrentUser()
	fmt.Printf("Logged in as %s <%s>\n", u.Name, u.Email)
	return true
}

func (a *app) runWhoami(ctx context.Context) bool {
	a.session.Bootstrap(ctx)
	u, ok := a.session.CurrentUser()
	if !ok || !a.session.IsAuthenticated() {
		fmt.Println(msgNotLoggedIn)
		return false
	}
	fmt.Printf("%s <%s> (id %s)\n", u.Name, u.Email, u.ID)
	if exp, known := session.TokenExpiry(a.session.Token()); known {
		fmt.Printf("Session valid until %s\n", exp.Local().Format("2006-01-02 15:04"))
	}
	return true
}

func (a *app) runList(ctx context.Context, mineOnly bool) bool {
	if !a.requireSession(ctx) {
		return false
	}
	a.ideas.Bootstrap(ctx)

	items := a.ideas.All()
	if mineOnly {
		items = a.ideas.Mine()
	}
	if len(items) == 0 {
		fmt.Println("No ideas yet")
		return true
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tCREATED")
	for _, idea := range items {
		author := idea.AuthorID
		if a.ideas.IsOwner(idea) {
			author = "you"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", idea.ID, idea.Title, author, idea.CreatedAt)
	}
	w.Flush()
	return true
}

func (a *app) runShow(ctx context.Context, args []string) bool {
	if len(args) < 1 {
		usage()
	}
	if !a.requireSession(ctx) {
		return false
	}
	id := args[0]

	idea, ok := a.ideas.GetByID(id)
	if !ok {
		fetched, err := a.ideas.Fetch(ctx, id)
		if err != nil {
			if api.KindOf(err) == api.KindNotFound {
				fmt.Println("Idea not found")
			} else {
				fmt.Println("Could not load idea, try again")
			}
			return false
		}
		idea = fetched
	}

	fmt.Printf("%s\n\n%s\n\n— %s, %s\n", idea.Title, idea.Description, idea.AuthorID, idea.CreatedAt)
	if a.ideas.IsOwner(idea) {
		fmt.Println("(you can update or delete this idea)")
	}
	return true
}

func (a *app) runCreate(ctx context.Context, args []string) bool {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	title := fs.String("title", "", "idea title")
	desc := fs.String("desc", "", "idea description")
	fs.Parse(args)

	if !a.requireSession(ctx) {
		return false
	}
	if err := a.ideas.Create(ctx, *title, *desc); err != nil {
		return fail("ideas.create_failed", err, msgCreateFailed)
	}
	fmt.Println("Idea created")
	return true
}

func (a *app) runUpdate(ctx context.Context, args []string) bool {
	if len(args) < 1 {
		usage()
	}
	id := args[0]
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	title := fs.String("title", "", "idea title")
	desc := fs.String("desc", "", "idea description")
	fs.Parse(args[1:])

	if !a.requireSession(ctx) {
		return false
	}
	if err := a.ideas.Update(ctx, id, *title, *desc); err != nil {
		return fail("ideas.update_failed", err, msgUpdateFailed)
	}
	fmt.Println("Idea updated")
	return true
}

func (a *app) runDelete(ctx context.Context, args []string) bool {
	if len(args) < 1 {
		usage()
	}
	if !a.requireSession(ctx) {
		return false
	}
	if err := a.ideas.Delete(ctx, args[0]); err != nil {
		return fail("ideas.delete_failed", err, msgDeleteFailed)
	}
	fmt.Println("Idea deleted")
	return true
}

// requireSession revalidates a rehydrated credential once per invocation,
// the CLI's equivalent of the app's startup refresh.
func (a *app) requireSession(ctx context.Context) bool {
	a.session.Bootstrap(ctx)
	if !a.session.IsAuthenticated() {
		fmt.Println(msgNotLoggedIn)
		return false
	}
	return true
}

func fail(event string, err error, msg string) bool {
	obs.LogEvent(event, map[string]any{"error": err.Error(), "kind": string(api.KindOf(err))})
	fmt.Println(msg)
	return false
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: ideasctl <command> [flags]

  register -name NAME -email EMAIL -password PASSWORD
  login    -email EMAIL -password PASSWORD
  logout
  whoami
  list
  mine
  show   <id>
  create -title TITLE -desc DESCRIPTION
  update <id> -title TITLE -desc DESCRIPTION
  delete <id>
  version
`)
	os.Exit(1)
}
