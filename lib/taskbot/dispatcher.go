// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package taskbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bureau-foundation/notionbot/lib/clock"
	"github.com/bureau-foundation/notionbot/lib/discord"
	"github.com/bureau-foundation/notionbot/lib/guildconfig"
	"github.com/bureau-foundation/notionbot/lib/notion"
)

// NotionClient is the part of [notion.Client] the dispatcher uses.
type NotionClient interface {
	GetTasks(ctx context.Context, filter notion.Filter) ([]notion.Task, error)
	CreateTask(ctx context.Context, input notion.TaskInput) (*notion.Task, error)
	TestConnection(ctx context.Context) (*notion.ConnectionResult, error)
}

// NotionFactory builds a client for one guild's credentials. It is
// called per command; clients are not cached.
type NotionFactory func(apiKey, databaseID string) (NotionClient, error)

// Config holds the dependencies of a Dispatcher.
type Config struct {
	Store     guildconfig.Store
	NewNotion NotionFactory

	// Advisor answers advise and weekadvise. Nil disables both.
	Advisor *Advisor

	// ApplicationID is recorded as the bot client ID on setup.
	ApplicationID string

	// Location is used for week boundaries and calendar due dates.
	// Defaults to UTC.
	Location *time.Location

	Clock  clock.Clock
	Logger *slog.Logger
}

// Invocation is one slash command call.
type Invocation struct {
	GuildID   string
	GuildName string
	UserID    string
	UserName  string

	// CanManage is true when the invoking member holds Manage Server
	// or Administrator in the guild.
	CanManage bool

	Command string
	Options map[string]string
}

// Reply is the message sent back to Discord.
type Reply struct {
	Content   string
	Ephemeral bool
}

// Dispatcher routes invocations to command handlers. Safe for
// concurrent use.
type Dispatcher struct {
	store         guildconfig.Store
	newNotion     NotionFactory
	advisor       *Advisor
	applicationID string
	location      *time.Location
	clock         clock.Clock
	logger        *slog.Logger

	taskCommands map[string]taskHandler
}

// taskHandler runs a command against a configured guild. Errors are
// turned into ephemeral replies by the dispatcher.
type taskHandler func(ctx context.Context, client NotionClient, invocation Invocation) (Reply, error)

// New creates a Dispatcher.
func New(config Config) (*Dispatcher, error) {
	if config.Store == nil {
		return nil, errors.New("taskbot: Store is required")
	}
	if config.NewNotion == nil {
		return nil, errors.New("taskbot: NewNotion is required")
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	dispatcher := &Dispatcher{
		store:         config.Store,
		newNotion:     config.NewNotion,
		advisor:       config.Advisor,
		applicationID: config.ApplicationID,
		location:      config.Location,
		clock:         config.Clock,
		logger:        config.Logger,
	}
	dispatcher.taskCommands = map[string]taskHandler{
		CommandAddTask:       dispatcher.addTask,
		CommandMyTasks:       dispatcher.myTasks,
		CommandDueTasks:      dispatcher.dueTasks,
		CommandAdvise:        dispatcher.advise,
		CommandWeekProgress:  dispatcher.weekProgress,
		CommandWeekAdvise:    dispatcher.weekAdvise,
		CommandListAssignees: dispatcher.listAssignees,
		CommandListStatus:    dispatcher.listStatus,
	}
	return dispatcher, nil
}

const (
	setupRequiredMessage = "❌ Notion is not configured for this server. Run `/setup` first to connect a database."
	configErrorMessage   = "⚠️ Could not load this server's settings. Try again, or run `/setup` again."
	guildOnlyMessage     = "❌ This command can only be used in a server."
	permissionMessage    = "❌ You need the Manage Server permission to use this command."
)

// Dispatch runs the invocation and returns the reply. It never fails:
// errors are logged and reported to the user as ephemeral replies.
func (dispatcher *Dispatcher) Dispatch(ctx context.Context, invocation Invocation) Reply {
	var reply Reply
	switch {
	case invocation.GuildID == "":
		reply = ephemeral(guildOnlyMessage)
	case invocation.Command == CommandSetup:
		reply = dispatcher.setup(ctx, invocation)
	case invocation.Command == CommandConfig:
		reply = dispatcher.showConfig(ctx, invocation)
	case invocation.Command == CommandReset:
		reply = dispatcher.reset(ctx, invocation)
	default:
		handler, ok := dispatcher.taskCommands[invocation.Command]
		if !ok {
			reply = ephemeral(fmt.Sprintf("❌ Unknown command `/%s`.", invocation.Command))
			break
		}
		reply = dispatcher.runTaskCommand(ctx, invocation, handler)
	}
	reply.Content = discord.Truncate(reply.Content, discord.MaxMessageLength)
	return reply
}

func (dispatcher *Dispatcher) runTaskCommand(ctx context.Context, invocation Invocation, handler taskHandler) Reply {
	config, err := dispatcher.store.Get(ctx, invocation.GuildID)
	if errors.Is(err, guildconfig.ErrNotFound) || (err == nil && !config.IsComplete()) {
		return ephemeral(setupRequiredMessage)
	}
	if err != nil {
		dispatcher.logger.Error("loading guild config failed",
			"operation", invocation.Command,
			"guild_id", invocation.GuildID,
			"error", err,
		)
		return ephemeral(configErrorMessage)
	}

	client, err := dispatcher.newNotion(config.NotionAPIKey, config.NotionDatabaseID)
	if err != nil {
		dispatcher.logger.Error("building notion client failed",
			"operation", invocation.Command,
			"guild_id", invocation.GuildID,
			"error", err,
		)
		return ephemeral(configErrorMessage)
	}

	reply, err := handler(ctx, client, invocation)
	if err != nil {
		dispatcher.logger.Error("command failed",
			"operation", invocation.Command,
			"guild_id", invocation.GuildID,
			"user_id", invocation.UserID,
			"error", err,
		)
		return ephemeral("⚠️ " + userMessage(err))
	}
	return reply
}

// inputError is a problem with the user's command options. Its message
// is shown verbatim.
type inputError struct {
	message string
}

func (err *inputError) Error() string { return err.message }

func invalidInput(format string, args ...any) error {
	return &inputError{message: fmt.Sprintf(format, args...)}
}

func userMessage(err error) string {
	var input *inputError
	var notionError *notion.Error
	switch {
	case errors.As(err, &input):
		return input.message
	case errors.As(err, &notionError):
		return notion.UserMessage(err)
	case errors.Is(err, ErrNoAdvisor):
		return "AI advice is not enabled for this bot."
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "The request timed out. Try again in a moment."
	default:
		return "Something went wrong while running the command. Check the input and try again."
	}
}

func ephemeral(content string) Reply {
	return Reply{Content: content, Ephemeral: true}
}

func public(content string) Reply {
	return Reply{Content: content}
}
