/*
 * Copyright 2025 tomoncle.
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

package utils

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// envValue returns the trimmed value of key and whether it is set and non-blank.
func envValue(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func EnvDefaultString(key string, def string) string {
	if v, ok := envValue(key); ok {
		return v
	}
	return def
}

// EnvDefaultInt returns def when key is unset or not an integer.
func EnvDefaultInt(key string, def int) int {
	v, ok := envValue(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvDefaultBool(key string, def bool) bool {
	v, ok := envValue(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// EnvDefaultDuration parses a duration such as "2s"; bare integers are seconds.
func EnvDefaultDuration(key string, def time.Duration) time.Duration {
	v, ok := envValue(key)
	if !ok {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return def
}
