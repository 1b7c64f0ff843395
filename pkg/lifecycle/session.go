// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package lifecycle

import (
	"github.com/kballard/go-shellquote"
)

// StatusCommand lists the screen sessions of the remote user.
const StatusCommand = "screen -list"

// QuitCommand terminates a session. screen exits non-zero when the session
// does not exist.
func QuitCommand(session string) string {
	return shellquote.Join("screen", "-X", "-S", session, "quit")
}

// StartCommand starts argv detached inside a new session.
func StartCommand(session string, argv ...string) string {
	return shellquote.Join(append([]string{"screen", "-S", session, "-d", "-m"}, argv...)...)
}

// RestartCommand quits the session and starts a fresh one as a single
// shell line, so an absent or stale session never blocks the start.
//
//	screen -X -S resourceService quit; screen -S resourceService -d -m cmsResourceService -a ALL
func RestartCommand(session string, argv ...string) string {
	return QuitCommand(session) + "; " + StartCommand(session, argv...)
}
