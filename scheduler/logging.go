/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package scheduler

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("modelstore/scheduler", "task execution loops")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
