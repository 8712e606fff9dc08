/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package modelstore

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("modelstore", "asynchronous model queries and observations")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
