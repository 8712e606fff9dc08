/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package session

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("modelstore/session", "connections and live queries")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
