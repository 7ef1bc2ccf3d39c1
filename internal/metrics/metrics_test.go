// ScreenFleet - TV Box Fleet Control and Playback Analytics
// Copyright 2026 ScreenFleet Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/screenfleet/screenfleet

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordConnectionLifecycle(t *testing.T) {
	before := testutil.ToFloat64(ActiveConnections.WithLabelValues("device"))

	RecordConnectionOpened("device")
	RecordConnectionOpened("device")
	assert.Equal(t, before+2, testutil.ToFloat64(ActiveConnections.WithLabelValues("device")))

	RecordConnectionClosed("device")
	assert.Equal(t, before+1, testutil.ToFloat64(ActiveConnections.WithLabelValues("device")))
}

func TestRecordEventIngested(t *testing.T) {
	before := testutil.ToFloat64(EventsIngested.WithLabelValues("heartbeat"))
	RecordEventIngested("heartbeat")
	assert.Equal(t, before+1, testutil.ToFloat64(EventsIngested.WithLabelValues("heartbeat")))
}

func TestRecordCommandRouted(t *testing.T) {
	before := testutil.ToFloat64(CommandsRouted.WithLabelValues("offline"))
	RecordCommandRouted("offline")
	assert.Equal(t, before+1, testutil.ToFloat64(CommandsRouted.WithLabelValues("offline")))
}

func TestRecordDBQuery(t *testing.T) {
	errsBefore := testutil.ToFloat64(DBQueryErrors.WithLabelValues("insert"))

	RecordDBQuery("insert", 5*time.Millisecond, nil)
	assert.Equal(t, errsBefore, testutil.ToFloat64(DBQueryErrors.WithLabelValues("insert")))

	RecordDBQuery("insert", 5*time.Millisecond, errors.New("boom"))
	assert.Equal(t, errsBefore+1, testutil.ToFloat64(DBQueryErrors.WithLabelValues("insert")))
}

func TestRecordAuthRejection(t *testing.T) {
	before := testutil.ToFloat64(AuthRejections.WithLabelValues("bad_token"))
	RecordAuthRejection("bad_token")
	assert.Equal(t, before+1, testutil.ToFloat64(AuthRejections.WithLabelValues("bad_token")))
}
