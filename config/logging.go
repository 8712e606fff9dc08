/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("modelstore/config", "configuration files")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
