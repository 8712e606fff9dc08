/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package bolt

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("modelstore/bolt", "bbolt file backend")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
