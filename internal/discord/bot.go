package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/NgigiN/ledger/internal/app"
	"github.com/NgigiN/ledger/internal/ingest"
	"github.com/NgigiN/ledger/internal/logger"
	"github.com/NgigiN/ledger/internal/mpesa"
	"github.com/NgigiN/ledger/internal/statement"
	"github.com/NgigiN/ledger/internal/summary"
)

const (
	commandTimeout = 2 * time.Minute
	maxUpload      = 10 << 20
)

type Bot struct {
	session   *discordgo.Session
	app       *app.App
	channelID string
	startTime time.Time
	client    *http.Client
	health    *http.Server
	log       zerolog.Logger
}

func NewBot(a *app.App) (*Bot, error) {
	if err := a.Config.ValidateBot(); err != nil {
		return nil, err
	}
	session, err := discordgo.New("Bot " + a.Config.DiscordBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	bot := &Bot{
		session:   session,
		app:       a,
		channelID: a.Config.DiscordChannelId,
		startTime: time.Now(),
		client:    &http.Client{Timeout: 30 * time.Second},
		log:       logger.Component(a.Log, "discord"),
	}

	session.AddHandler(bot.handleMessage)
	session.Identify.Intents = discordgo.IntentGuildMessages | discordgo.IntentMessageContent

	return bot, nil
}

func (b *Bot) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", b.handleHealth)
	b.health = &http.Server{Addr: b.app.Config.HealthAddr, Handler: mux}
	go func() {
		if err := b.health.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			b.log.Error().Err(err).Msg("health server stopped")
		}
	}()

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}
	return nil
}

func (b *Bot) Stop() {
	b.session.Close()
	if b.health != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		b.health.Shutdown(ctx)
	}
}

func (b *Bot) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.State.User.ID {
		return //bot's messages
	}

	if m.ChannelID != b.channelID {
		return //specific to the channel
	}

	owner, err := ownerID(m.Author.ID)
	if err != nil {
		b.log.Warn().Err(err).Str("author", m.Author.ID).Msg("cannot map author to an owner")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	log := b.log.With().Str("author", m.Author.ID).Logger()
	ctx = logger.WithContext(ctx, log)

	var reply string
	switch args := strings.Fields(m.Content); {
	case len(m.Attachments) > 0:
		reply = b.handleAttachments(ctx, m.Attachments, owner)
	case len(args) == 0:
		return
	case args[0] == "!summary":
		reply = b.handleSummaryCommand(ctx, owner, args[1:])
	case args[0] == "!monthly":
		reply = b.handleMonthlyCommand(ctx, owner, args[1:])
	case args[0] == "!categorize":
		reply = b.handleCategorizeCommand(ctx)
	case args[0] == "!dedupe":
		reply = b.handleDedupeCommand(ctx)
	case args[0] == "!claim":
		reply = b.handleClaimCommand(ctx, owner, args[1:])
	case args[0] == "!help":
		reply = usage
	case mpesa.IsConfirmation(m.Content):
		reply = b.handleConfirmations(ctx, m.Content, owner)
	default:
		return
	}

	if _, err := s.ChannelMessageSend(m.ChannelID, reply); err != nil {
		log.Error().Err(err).Msg("failed to send reply")
	}
}

const usage = "**Commands**\n" +
	"Attach a .csv or .xlsx statement to import it\n" +
	"Paste M-PESA confirmations to import them\n" +
	"!summary [start] [end] - totals per category, dates as YYYY-MM-DD, both inclusive\n" +
	"!monthly <year> [month] - spending per month and category\n" +
	"!categorize - categorize transactions without a category\n" +
	"!dedupe - remove duplicate transactions\n" +
	"!claim <ids...> - attach transactions to you"

func (b *Bot) handleAttachments(ctx context.Context, attachments []*discordgo.MessageAttachment, owner uint) string {
	var replies []string
	for _, att := range attachments {
		ext := strings.ToLower(filepath.Ext(att.Filename))
		if ext != ".csv" && ext != ".xlsx" {
			replies = append(replies, fmt.Sprintf("Skipped %s: only .csv and .xlsx statements are supported", att.Filename))
			continue
		}
		report, err := b.importAttachment(ctx, att, owner)
		if err != nil {
			replies = append(replies, fmt.Sprintf("Failed to import %s: %v", att.Filename, err))
			continue
		}
		replies = append(replies, formatReport(att.Filename, report))
	}
	return strings.Join(replies, "\n\n")
}

func (b *Bot) importAttachment(ctx context.Context, att *discordgo.MessageAttachment, owner uint) (*ingest.Report, error) {
	if att.Size > maxUpload {
		return nil, fmt.Errorf("file is larger than %d MB", maxUpload>>20)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, att.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: %s", resp.Status)
	}

	table, err := statement.Read(io.LimitReader(resp.Body, maxUpload), att.Filename)
	if err != nil {
		return nil, err
	}
	return b.app.Ingest.Import(ctx, table, ingest.Options{OwnerID: &owner})
}

func (b *Bot) handleConfirmations(ctx context.Context, content string, owner uint) string {
	report, err := importConfirmations(ctx, b.app.Ingest, content, owner)
	if err != nil {
		return fmt.Sprintf("Failed to import M-PESA messages: %v", err)
	}
	return formatReport("M-PESA messages", report)
}

// importConfirmations imports pasted confirmations and folds messages that
// could not be parsed into the report as failed rows.
func importConfirmations(ctx context.Context, svc *ingest.Service, content string, owner uint) (*ingest.Report, error) {
	table, parseErrs := mpesa.Table(content)

	report := &ingest.Report{Errors: []string{}}
	if len(table.Rows) > 0 {
		r, err := svc.Import(ctx, table, ingest.Options{OwnerID: &owner})
		if err != nil {
			return nil, err
		}
		report = r
	}
	for _, err := range parseErrs {
		report.TotalImported++
		report.Failed++
		report.Errors = append(report.Errors, err.Error())
	}
	return report, nil
}

func (b *Bot) handleSummaryCommand(ctx context.Context, owner uint, args []string) string {
	if len(args) > 2 {
		return "Usage: !summary [start] [end]\nExamples:\n!summary - all time\n!summary 2024-01-01 2024-01-31 - January 2024"
	}
	var f summary.Filter
	if len(args) > 0 {
		f.Start = args[0]
	}
	if len(args) > 1 {
		f.End = args[1]
	}
	totals, err := b.app.Summary.ByCategory(ctx, owner, f)
	if err != nil {
		return fmt.Sprintf("Failed to get summary: %v", err)
	}
	return formatCategorySummary(totals)
}

func (b *Bot) handleMonthlyCommand(ctx context.Context, owner uint, args []string) string {
	year, month, err := parseMonthlyArgs(args)
	if err != nil {
		return fmt.Sprintf("%v\nUsage: !monthly <year> [month]", err)
	}
	monthly, err := b.app.Summary.Monthly(ctx, owner, year, month)
	if err != nil {
		return fmt.Sprintf("Failed to get monthly summary: %v", err)
	}
	return formatMonthly(year, monthly)
}

func (b *Bot) handleCategorizeCommand(ctx context.Context) string {
	res, err := b.app.Engine.CategorizeUncategorized(ctx, b.app.DB)
	if err != nil {
		return fmt.Sprintf("Failed to categorize: %v", err)
	}
	return fmt.Sprintf("🏷️ **Categorization Complete**\nUncategorized: %d\nCategorized: %d\nStill uncategorized: %d",
		res.TotalUncategorized, res.Categorized, res.RemainingUncategorized)
}

func (b *Bot) handleDedupeCommand(ctx context.Context) string {
	res, err := b.app.Dedupe.Run(ctx)
	if err != nil {
		return fmt.Sprintf("Failed to remove duplicates: %v", err)
	}
	if res.GroupsFound == 0 {
		return "No duplicate transactions found."
	}
	return fmt.Sprintf("🧹 Removed %d duplicate transactions from %d groups", res.RowsDeleted, res.GroupsFound)
}

func (b *Bot) handleClaimCommand(ctx context.Context, owner uint, args []string) string {
	ids, err := parseIDs(args)
	if err != nil {
		return fmt.Sprintf("%v\nUsage: !claim <ids...>", err)
	}
	n, err := b.app.Ingest.Claim(ctx, owner, ids)
	if err != nil {
		return fmt.Sprintf("Failed to claim transactions: %v", err)
	}
	return fmt.Sprintf("Claimed %d transactions", n)
}

func (b *Bot) handleHealth(w http.ResponseWriter, r *http.Request) {
	connected := b.session != nil && b.session.State != nil
	status := "healthy"
	database := "ok"

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := b.app.DB.Ping(ctx); err != nil {
		database = err.Error()
		status = "unhealthy"
	}
	if !connected {
		status = "unhealthy"
	}

	w.Header().Set("Content-Type", "application/json")
	if status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(map[string]any{
		"status":            status,
		"uptime":            time.Since(b.startTime).String(),
		"discord_connected": connected,
		"database":          database,
		"timestamp":         time.Now().Format(time.RFC3339),
	})
}
