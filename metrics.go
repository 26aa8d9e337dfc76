// Copyright 2024 The mmapbloom Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mmapbloom

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is an optional collaborator a BloomFilter can be handed via
// SetMetrics; a nil *Metrics (the default) costs nothing. It tracks add
// and contains call counts plus how often contains returned true, which
// — compared against the number of distinct keys a caller knows it
// added — is the operational signal for an unexpectedly high observed
// false-positive rate.
type Metrics struct {
	adds            prometheus.Counter
	containsChecks  prometheus.Counter
	containsMatches prometheus.Counter
}

// NewMetrics registers one set of add/contains counters under name
// (used as the metric name prefix), constructed eagerly via promauto
// at call time rather than lazily on first observation.
func NewMetrics(reg prometheus.Registerer, name string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		adds: factory.NewCounter(prometheus.CounterOpts{
			Name: name + "_adds_total",
			Help: "Number of Add calls against this Bloom filter.",
		}),
		containsChecks: factory.NewCounter(prometheus.CounterOpts{
			Name: name + "_contains_total",
			Help: "Number of Contains calls against this Bloom filter.",
		}),
		containsMatches: factory.NewCounter(prometheus.CounterOpts{
			Name: name + "_contains_true_total",
			Help: "Number of Contains calls that returned true.",
		}),
	}
}

func (m *Metrics) observeAdd() {
	if m == nil {
		return
	}
	m.adds.Inc()
}

func (m *Metrics) observeContains(present bool) {
	if m == nil {
		return
	}
	m.containsChecks.Inc()
	if present {
		m.containsMatches.Inc()
	}
}
