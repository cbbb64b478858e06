// Package commands implements the command orchestrators (spec §4.6/§6):
// one thin function per command family over resolver → queue → voice,
// following the teacher's method-per-tool style adapted from its single
// ToolResult-returning dispatcher into discrete functions matching the
// spec's literal command list.
package commands

import (
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"cracktunes/internal/recograph"
	"cracktunes/internal/resolver"
	"cracktunes/internal/settings"
	"cracktunes/internal/store"
	"cracktunes/internal/voice"
)

// Deps bundles every collaborator an orchestrator needs. Built once in
// main and passed by value (it's all pointers/interfaces) to each handler.
type Deps struct {
	Session     *discordgo.Session
	Settings    *settings.Store
	Resolver    *resolver.Resolver
	Voice       *voice.Controller
	Store       *store.Store
	Recommend   recograph.Provider
	DownloadDir string
	Log         *zap.Logger
}
