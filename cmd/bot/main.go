// Command bot is the cracktunes entry point: wires every package in
// internal/ into a running Discord session, dispatches prefix commands to
// the command orchestrators, and shuts everything down cleanly on signal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"cracktunes/internal/commands"
	"cracktunes/internal/eventlog"
	"cracktunes/internal/httpx"
	"cracktunes/internal/recograph"
	"cracktunes/internal/resolver"
	"cracktunes/internal/settings"
	"cracktunes/internal/store"
	"cracktunes/internal/voice"
	"cracktunes/pkg/config"
	"cracktunes/pkg/logger"
)

func main() {
	if err := logger.Init(os.Getenv("ENV")); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()
	log := logger.Get()
	log.Info("starting cracktunes")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps, cleanup, err := wire(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to wire dependencies", zap.Error(err))
	}
	defer cleanup()

	deps.Session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildModeration

	router := eventlog.NewRouter(deps.Session, deps.Settings, deps.Sink, log)
	router.Register(deps.Session)

	d := newDispatcher(deps)
	deps.Session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		d.handleMessage(ctx, s, m)
	})
	deps.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		knownGuilds := make([]string, len(r.Guilds))
		for i, g := range r.Guilds {
			knownGuilds[i] = g.ID
		}
		deps.Settings.LoadAll(knownGuilds)
		log.Info("settings loaded for known guilds", zap.Int("count", len(knownGuilds)))
	})

	if err := deps.Session.Open(); err != nil {
		log.Fatal("failed to open discord session", zap.Error(err))
	}
	defer deps.Session.Close()

	log.Info("cracktunes is running, press ctrl-c to exit")

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	log.Info("shutting down cracktunes")
}

// botDeps bundles every process-lifetime collaborator built in wire:
// commands.Deps plus the event sink, which the orchestrators don't need
// directly.
type botDeps struct {
	commands.Deps
	Sink eventlog.Sink
}

// wire constructs every collaborator in dependency order (spec §2's leaves-
// first component list) and returns a cleanup func that releases them in
// reverse order. A failure to connect the Postgres metadata store fails
// wiring; Neo4j is not required here, since buildRecommendationChain only
// logs a warning and drops the graph leg when it is unreachable.
func wire(ctx context.Context, cfg *config.Config, log *zap.Logger) (botDeps, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
	if err != nil {
		return botDeps{}, cleanup, fmt.Errorf("create discord session: %w", err)
	}

	metaStore, err := store.New(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return botDeps{}, cleanup, fmt.Errorf("connect metadata store: %w", err)
	}
	closers = append(closers, metaStore.Close)

	settingsStore := settings.New(cfg.SettingsDir, metaStore, log)

	recommender, closeGraph := buildRecommendationChain(ctx, cfg, log)
	closers = append(closers, closeGraph)

	client := httpx.New()
	res := buildResolver(client, log)

	player := voice.NewExecPlayer(log)
	voiceCtrl := voice.NewController(session, settingsStore, res, recommender, player, log)

	sinkPath := cfg.SettingsDir + "/events.jsonl"
	sink, err := eventlog.NewJSONSink(sinkPath, log)
	if err != nil {
		return botDeps{}, cleanup, fmt.Errorf("open event sink: %w", err)
	}
	closers = append(closers, sink.Close)

	deps := botDeps{
		Deps: commands.Deps{
			Session:     session,
			Settings:    settingsStore,
			Resolver:    res,
			Voice:       voiceCtrl,
			Store:       metaStore,
			Recommend:   recommender,
			DownloadDir: cfg.DownloadDir,
			Log:         log,
		},
		Sink: sink,
	}
	return deps, cleanup, nil
}

// buildRecommendationChain answers spec §9's open question: graph-first,
// LLM-fallback autoplay recommendations (§6 of SPEC_FULL.md). Either leg
// degrades to "no recommendation" rather than failing wiring if its
// backing service is unreachable — autoplay is a nice-to-have, not a
// startup requirement.
func buildRecommendationChain(ctx context.Context, cfg *config.Config, log *zap.Logger) (recograph.Provider, func()) {
	var providers []recograph.Provider
	closeFn := func() {}

	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURI, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""))
	if err != nil {
		log.Warn("neo4j driver unavailable, co-listen recommendations disabled", zap.Error(err))
	} else if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Warn("neo4j unreachable, co-listen recommendations disabled", zap.Error(err))
		_ = driver.Close(ctx)
	} else {
		graphRepo := recograph.NewGraphRepository(driver, log)
		providers = append(providers, graphRepo)
		closeFn = func() { _ = graphRepo.Close(context.Background()) }
	}

	if cfg.AIAPIKey != "" {
		llm := recograph.NewLLMProvider(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIModel, log)
		providers = append(providers, llm)
	}

	return recograph.Chain{Providers: providers}, closeFn
}

// buildResolver assembles the query resolver (spec §4.1 / SPEC_FULL.md §8):
// streaming-service adapters, a yt-dlp-first/HTML-scrape-fallback generic
// extractor chain, yt-dlp as the Keywords searcher, and the platform CDN
// attachment classifier.
func buildResolver(client *httpx.Client, log *zap.Logger) *resolver.Resolver {
	ytdlp := resolver.NewYtdlpExtractor("")
	html := resolver.NewHTMLMetadataExtractor(client)
	generic := resolver.ChainedExtractor{Extractors: []resolver.GenericExtractor{ytdlp, html}}

	services := []resolver.Service{
		resolver.NewSpotifyService(client),
		resolver.NewSoundCloudService(client),
	}
	attach := resolver.NewCDNAttachmentClassifier()

	return resolver.New(client, services, generic, ytdlp, attach, log).
		WithDownloader(resolver.NewYtdlpDownloader(""))
}
