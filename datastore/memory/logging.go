/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package memory

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("modelstore/memory", "in-memory backend")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
