// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import "net/http"

// noop discards every observation. It is both the service and all of its meters.
type noop struct{}

var _ interface {
	Metrics
	CountMeter
	CountVecMeter
	GaugeMeter
	GaugeVecMeter
	HistogramMeter
	HistogramVecMeter
} = noop{}

func defaultNoopMetrics() Metrics { return noop{} }

func (n noop) GetOrCreateCountMeter(string) CountMeter                  { return n }
func (n noop) GetOrCreateCountVecMeter(string, []string) CountVecMeter  { return n }
func (n noop) GetOrCreateGaugeMeter(string) GaugeMeter                  { return n }
func (n noop) GetOrCreateGaugeVecMeter(string, []string) GaugeVecMeter  { return n }
func (n noop) GetOrCreateHistogramMeter(string, []int64) HistogramMeter { return n }
func (n noop) GetOrCreateHandler() http.Handler                         { return nil }

func (n noop) GetOrCreateHistogramVecMeter(string, []string, []int64) HistogramVecMeter {
	return n
}

func (noop) Add(int64)                                  {}
func (noop) Set(int64)                                  {}
func (noop) Observe(int64)                              {}
func (noop) AddWithLabel(int64, map[string]string)      {}
func (noop) SetWithLabel(int64, map[string]string)      {}
func (noop) ObserveWithLabels(int64, map[string]string) {}
