/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("modelstore/registry", "model type and configuration registry")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
