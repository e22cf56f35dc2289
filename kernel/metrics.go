/*
 * metrics.go, part of goqdk.
 *
 * Copyright 2024 The goqdk authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package kernel

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "goqdk",
			Subsystem: "kernel",
			Name:      "commands_total",
			Help:      "Commands executed by the kernel client.",
		},
		[]string{"command", "outcome"},
	)
	commandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "goqdk",
			Subsystem: "kernel",
			Name:      "command_duration_seconds",
			Help:      "Time from sending a command to the end of its answer.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"command", "outcome"},
	)
)

//RegisterMetrics registers the client metrics with the default Prometheus
//registry. It can be called any number of times.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(commandsTotal, commandDuration)
	})
}

//commandLabel reduces a command to a label with few values: the magic
//name, "metadata" for ?name queries, or "code".
func commandLabel(command string) string {
	command = strings.TrimSpace(command)
	switch {
	case strings.HasPrefix(command, "%"):
		f := strings.Fields(command[1:])
		if len(f) == 0 {
			return "magic"
		}
		return f[0]
	case strings.HasPrefix(command, "?"):
		return "metadata"
	}
	return "code"
}

//outcomeLabel classifies the error of a command.
func outcomeLabel(err error) string {
	var rerr *RemoteExecutionError
	var perr *ProtocolViolationError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &rerr):
		return "remote_error"
	case errors.As(err, &perr):
		return "protocol_error"
	}
	return "error"
}

func recordCommand(command string, err error, d time.Duration) {
	RegisterMetrics()
	cmd, outcome := commandLabel(command), outcomeLabel(err)
	commandsTotal.WithLabelValues(cmd, outcome).Inc()
	commandDuration.WithLabelValues(cmd, outcome).Observe(d.Seconds())
}
