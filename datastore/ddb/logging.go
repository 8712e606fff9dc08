/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("modelstore/ddb", "DynamoDB backend")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
