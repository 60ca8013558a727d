/*
 * Copyright 2020 grant@lastweekend.com.au
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package gospy

import (
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Settings are the process-wide defaults for new Doubles, read once from
// the environment (a .env file is honoured if present).
type Settings struct {
	// Trace logs every invocation on every double.
	Trace bool `env:"GOSPY_TRACE" envDefault:"false"`

	// Strict makes the default call for an unregistered method a mock that
	// never expects to be invoked, instead of the double's default Answer.
	Strict bool `env:"GOSPY_STRICT" envDefault:"false"`
}

var (
	settingsOnce sync.Once
	settings     Settings
)

// currentSettings is how new Doubles read their defaults. Indirected because
// CurrentSettings latches on first use, so tests swap this to force strict
// or tracing behaviour.
var currentSettings = CurrentSettings

// CurrentSettings returns the environment-derived defaults. A malformed
// environment falls back to zero settings rather than failing a test run.
func CurrentSettings() Settings {
	settingsOnce.Do(func() {
		_ = godotenv.Load()
		if err := env.Parse(&settings); err != nil {
			settings = Settings{}
		}
	})
	return settings
}
