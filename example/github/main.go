// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/z5labs/mount"
	"github.com/z5labs/mount/config"
	"github.com/z5labs/mount/http/httpclient"
	"github.com/z5labs/mount/pkg/otelconfig"
	"github.com/z5labs/mount/pkg/ptr"
	"github.com/z5labs/mount/pkg/slogfield"
	"github.com/z5labs/mount/store"
)

type User struct {
	Login       string `json:"login"`
	Name        string `json:"name"`
	PublicRepos int    `json:"public_repos"`
}

type Repo struct {
	FullName string `json:"full_name"`
	Stars    int    `json:"stargazers_count"`
}

type GitHub struct {
	Token string `mount:"token"`

	svc *mount.Service
}

func (gh *GitHub) Config() config.Map {
	if gh.Token == "" {
		return nil
	}
	return config.Map{
		"headers": map[string]any{
			"Authorization": "Bearer " + gh.Token,
		},
	}
}

func (gh *GitHub) GetUser(ctx context.Context, username string) (User, error) {
	return mount.Call[User](ctx, gh.svc, gh, gh.GetUser, map[string]any{"username": username})
}

func (gh *GitHub) ListRepos(ctx context.Context, username string, page int) ([]Repo, error) {
	return mount.Call[[]Repo](ctx, gh.svc, gh, gh.ListRepos, map[string]any{"username": username}, map[string]any{
		"per_page": 5,
		"page":     page,
		"sort":     "updated",
	})
}

func init() {
	store.SetClassConfig[GitHub](store.Default, config.Map{
		"baseURL": "https://api.github.com",
		"timeout": 10000,
		"headers": map[string]any{
			"Accept":               "application/vnd.github+json",
			"X-GitHub-Api-Version": "2022-11-28",
		},
	})
	err := store.AddInstanceMethodConfig[GitHub](store.Default, (*GitHub).GetUser, store.MethodRecord{
		Config: config.Map{"method": "get", "url": "/users/{username}"},
	})
	if err != nil {
		panic(err)
	}
	err = store.AddInstanceMethodConfig[GitHub](store.Default, (*GitHub).ListRepos, store.MethodRecord{
		Config: config.Map{"method": "get", "url": "/users/{username}/repos"},
		Params: store.ParamFlags{HasParams: ptr.Ref(true)},
	})
	if err != nil {
		panic(err)
	}
}

func run(ctx context.Context, log *slog.Logger, username string) error {
	tp, err := otelconfig.Local(otelconfig.ServiceName("github")).Init(ctx)
	if err != nil {
		return err
	}
	defer tp.Shutdown(context.Background())

	svc, err := mount.New(
		mount.LogHandler(log.Handler()),
		mount.TracerProvider(tp),
		mount.DefaultsFrom(config.FromEnv("GITHUB_DEFAULTS_")),
		mount.ClientOptions(
			httpclient.MaxRetries(3),
			httpclient.TripAfter(5),
			httpclient.OpenStateTimeout(time.Minute),
		),
	)
	if err != nil {
		return err
	}

	gh := &GitHub{
		Token: os.Getenv("GITHUB_TOKEN"),
		svc:   svc,
	}

	u, err := gh.GetUser(ctx, username)
	if err != nil {
		return err
	}
	log.InfoContext(ctx, "found user", slogfield.String("name", u.Name), slogfield.Int("public_repos", u.PublicRepos))

	repos, err := gh.ListRepos(ctx, username, 1)
	if err != nil {
		return err
	}
	for _, repo := range repos {
		log.InfoContext(ctx, "recently updated", slogfield.String("repo", repo.FullName), slogfield.Int("stars", repo.Stars))
	}
	return nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	username := "z5labs"
	if len(os.Args) > 1 {
		username = os.Args[1]
	}

	err := run(ctx, log, username)
	if err != nil {
		log.ErrorContext(ctx, "failed to query github", slogfield.Error(err))
		cancel()
		os.Exit(1)
	}
}
