/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package modelstore

// storage backends register themselves with the datastore package
import (
	_ "github.com/suparena/modelstore/datastore/bolt"
	_ "github.com/suparena/modelstore/datastore/ddb"
	_ "github.com/suparena/modelstore/datastore/memory"
)
