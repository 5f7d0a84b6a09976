// Package bot routes inbound updates to conversation flows and command
// handlers, applying rate and role gates at the boundary.
package bot

import "strings"

// Command identifies one bot command. Free text that is not a command
// resolves to CmdNone and is either fed to the active conversation or
// answered with a hint.
type Command int

const (
	CmdNone Command = iota
	CmdStart
	CmdHelp
	CmdCancel
	CmdAddStock
	CmdMyStock
	CmdDeleteItem
	CmdDeleteStock
	CmdSearch
	CmdSubscribe
	CmdUnsubscribe
	CmdSubscriptions
	CmdAdmin
	CmdAdminUsers
	CmdAdminStock
	CmdAdminStats
	CmdAdminExport
	CmdAdminBackup
	CmdAdminSQL
	CmdAdminClearCache
)

var commands = map[string]Command{
	"/start":             CmdStart,
	"/help":              CmdHelp,
	"/cancel":            CmdCancel,
	"/addstock":          CmdAddStock,
	"/mystock":           CmdMyStock,
	"/deleteitem":        CmdDeleteItem,
	"/deletestock":       CmdDeleteStock,
	"/search":            CmdSearch,
	"/subscribe":         CmdSubscribe,
	"/unsubscribe":       CmdUnsubscribe,
	"/subscriptions":     CmdSubscriptions,
	"/admin":             CmdAdmin,
	"/admin_users":       CmdAdminUsers,
	"/admin_stock":       CmdAdminStock,
	"/admin_stats":       CmdAdminStats,
	"/admin_export":      CmdAdminExport,
	"/admin_backup":      CmdAdminBackup,
	"/admin_sql":         CmdAdminSQL,
	"/admin_clear_cache": CmdAdminClearCache,
}

// adminOnly reports whether the command requires operator privileges.
func (c Command) adminOnly() bool {
	switch c {
	case CmdAdmin, CmdAdminUsers, CmdAdminStock, CmdAdminStats,
		CmdAdminExport, CmdAdminBackup, CmdAdminSQL, CmdAdminClearCache:
		return true
	}
	return false
}

// parseCommand resolves the leading token of a message to a command and
// returns the remainder as arguments.
func parseCommand(text string) (Command, string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return CmdNone, ""
	}

	name, args, _ := strings.Cut(text, " ")
	cmd, ok := commands[strings.ToLower(name)]
	if !ok {
		return CmdNone, ""
	}
	return cmd, strings.TrimSpace(args)
}
