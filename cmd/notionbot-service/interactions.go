// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/bureau-foundation/notionbot/lib/discord"
	"github.com/bureau-foundation/notionbot/lib/httpmw"
	"github.com/bureau-foundation/notionbot/lib/taskbot"
)

// followupTimeout bounds a command that was deferred. Discord accepts
// edits for 15 minutes after the interaction.
const followupTimeout = 5 * time.Minute

func (s *server) handleInteraction(w http.ResponseWriter, r *http.Request) {
	body, err := discord.ReadVerifiedBody(r, s.publicKey)
	if errors.Is(err, discord.ErrInvalidSignature) {
		s.logger.Warn("rejected interaction with invalid signature", "remote_ip", httpmw.ClientIP(r))
		http.Error(w, "invalid request signature", http.StatusUnauthorized)
		return
	}
	if err != nil {
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	var interaction discord.Interaction
	if err := json.Unmarshal(body, &interaction); err != nil {
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	switch interaction.Type {
	case discord.InteractionPing:
		writeJSON(w, http.StatusOK, discord.Pong())
	case discord.InteractionApplicationCommand:
		s.answerCommand(w, r, &interaction)
	default:
		s.logger.Debug("ignoring interaction", "type", interaction.Type, "interaction_id", interaction.ID)
		http.Error(w, "", http.StatusBadRequest)
	}
}

// answerCommand runs the command and replies inline when it finishes
// within deferAfter. Otherwise it acknowledges with a deferred
// response and edits the result into the original message later.
func (s *server) answerCommand(w http.ResponseWriter, r *http.Request, interaction *discord.Interaction) {
	invocation := invocationFrom(interaction)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), followupTimeout)

	replies := make(chan taskbot.Reply, 1)
	s.followups.Add(1)
	go func() {
		defer s.followups.Done()
		replies <- s.dispatcher.Dispatch(ctx, invocation)
	}()

	select {
	case reply := <-replies:
		cancel()
		writeJSON(w, http.StatusOK, discord.Message(reply.Content, reply.Ephemeral))
		return
	case <-s.clock.After(s.deferAfter):
	}

	writeJSON(w, http.StatusOK, discord.Deferred(deferEphemeral(invocation.Command)))
	s.logger.Info("deferred slow interaction",
		"command", invocation.Command,
		"guild_id", invocation.GuildID,
		"interaction_id", interaction.ID,
	)

	applicationID := interaction.ApplicationID
	if applicationID == "" {
		applicationID = s.applicationID
	}
	s.followups.Add(1)
	go func() {
		defer s.followups.Done()
		defer cancel()
		reply := <-replies
		if err := s.discord.EditOriginalResponse(ctx, applicationID, interaction.Token, reply.Content); err != nil {
			s.logger.Error("editing deferred interaction reply failed",
				"operation", "interaction-followup",
				"command", invocation.Command,
				"guild_id", invocation.GuildID,
				"interaction_id", interaction.ID,
				"error", err,
			)
		}
	}()
}

// deferEphemeral decides visibility before the reply exists. Settings
// commands always answer privately; task commands answer in channel.
func deferEphemeral(command string) bool {
	switch command {
	case taskbot.CommandSetup, taskbot.CommandConfig, taskbot.CommandReset:
		return true
	}
	return false
}

func invocationFrom(interaction *discord.Interaction) taskbot.Invocation {
	invocation := taskbot.Invocation{
		GuildID:   interaction.GuildID,
		CanManage: interaction.MemberCanManage(),
		Command:   interaction.CommandName(),
		Options:   interaction.Options(),
	}
	if user := interaction.Invoker(); user != nil {
		invocation.UserID = user.ID
		invocation.UserName = user.Username
	}
	return invocation
}
