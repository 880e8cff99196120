package fitdecode

import "testing"

func TestMetricAggZeroWhenUntouched(t *testing.T) {
	a := newAggregator()
	res := a.finalize()

	if res.Stats.HeartRateBPM != (MetricStats{}) {
		t.Fatalf("untouched heart rate must report zeros: %+v", res.Stats.HeartRateBPM)
	}
	if res.Stats.TemperatureC != (MetricStats{}) {
		t.Fatalf("untouched temperature must report zeros: %+v", res.Stats.TemperatureC)
	}
	if res.Stats.SpeedMPS != (MetricStats{}) {
		t.Fatalf("untouched speed must report zeros: %+v", res.Stats.SpeedMPS)
	}
	if res.Points == nil || res.Stats.DiveDurationsS == nil {
		t.Fatal("finalize must return non-nil slices")
	}
}

func TestAggregatorRoundsChannels(t *testing.T) {
	a := newAggregator()
	a.addRecord(decodedFields{
		{fieldTimestamp, testTS},
		{fieldHeartRate, 61},
		{fieldTemperature, 24},
	})
	a.addRecord(decodedFields{
		{fieldTimestamp, testTS + 10},
		{fieldHeartRate, 62},
		{fieldTemperature, 25},
	})
	res := a.finalize()

	// (61+62)/2 = 61.5 rounds to 62 for the integer channel.
	if res.Stats.HeartRateBPM.Avg != 62 {
		t.Fatalf("heart rate avg: got %v, want 62", res.Stats.HeartRateBPM.Avg)
	}
	if res.Stats.TemperatureC.Min != 24 || res.Stats.TemperatureC.Max != 25 {
		t.Fatalf("temperature stats: got %+v", res.Stats.TemperatureC)
	}
}

func TestAggregatorDepthAverageRounding(t *testing.T) {
	a := newAggregator()
	a.addRecord(decodedFields{{fieldTimestamp, testTS}, {fieldDepth, 4110}})
	a.addRecord(decodedFields{{fieldTimestamp, testTS + 5}, {fieldDepth, 8220}})
	res := a.finalize()

	// samples 4.11 and 8.22, mean 6.165, aggregate rounded to one decimal
	if res.Stats.DepthM.Avg != 6.2 {
		t.Fatalf("depth avg: got %v, want 6.2", res.Stats.DepthM.Avg)
	}
	if res.Stats.DepthM.Max != 8.2 {
		t.Fatalf("depth max: got %v, want 8.2", res.Stats.DepthM.Max)
	}
	if *res.Points[0].DepthM != 4.11 {
		t.Fatalf("per-sample depth keeps two decimals: %v", *res.Points[0].DepthM)
	}
}

func TestAggregatorLengthRaisesDepthMax(t *testing.T) {
	a := newAggregator()
	a.addRecord(decodedFields{{fieldTimestamp, testTS}, {fieldDepth, 6000}})
	a.addLength(decodedFields{
		{fieldDiveElapsed, 72000},
		{fieldDiveMaxDepth, 21400},
	})
	res := a.finalize()

	if res.Stats.DepthM.Max != 21.4 {
		t.Fatalf("depth max: got %v, want 21.4", res.Stats.DepthM.Max)
	}
	if res.Stats.DiveMinDepthsM[0] != 0 {
		t.Fatalf("absent min depth must default to 0: %v", res.Stats.DiveMinDepthsM[0])
	}
}

func TestAggregatorSessionFirstWins(t *testing.T) {
	a := newAggregator()
	a.addSession(decodedFields{{fieldSessionStart, testTS}, {fieldSessionElapsed, 90000}})
	a.addSession(decodedFields{{fieldSessionStart, testTS + 500}})
	res := a.finalize()

	if res.Session == nil || res.Session.StartTime != fitTime(testTS) {
		t.Fatalf("session: got %+v", res.Session)
	}
	if res.Session.TotalElapsedS != 90 {
		t.Fatalf("session elapsed: got %v", res.Session.TotalElapsedS)
	}
}

func TestAggregatorSkipsRecordWithoutTimestamp(t *testing.T) {
	a := newAggregator()
	a.addRecord(decodedFields{{fieldHeartRate, 80}})
	res := a.finalize()

	if len(res.Points) != 0 {
		t.Fatalf("record without timestamp must be dropped, got %d points", len(res.Points))
	}
	if res.Stats.HeartRateBPM != (MetricStats{}) {
		t.Fatalf("dropped record must not touch stats: %+v", res.Stats.HeartRateBPM)
	}
}
