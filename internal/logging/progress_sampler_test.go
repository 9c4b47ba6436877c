package logging

import "testing"

func TestProgressSamplerEmitsOnBucketBoundary(t *testing.T) {
	sampler := NewProgressSampler(10)

	if !sampler.ShouldLog(0, "upload") {
		t.Fatal("first observation should log")
	}
	if sampler.ShouldLog(3, "upload") {
		t.Fatal("same bucket should not log")
	}
	if !sampler.ShouldLog(10, "upload") {
		t.Fatal("new bucket should log")
	}
	if !sampler.ShouldLog(100, "upload") {
		t.Fatal("completion should log")
	}
}

func TestProgressSamplerEmitsOnStageChange(t *testing.T) {
	sampler := NewProgressSampler(10)
	sampler.ShouldLog(55, "upload")

	if !sampler.ShouldLog(55, "ocr") {
		t.Fatal("stage change should log even within a bucket")
	}
	// Stage change resets the bucket so lower percents log again.
	if !sampler.ShouldLog(5, "upload") {
		t.Fatal("returning stage should reset buckets")
	}
}

func TestProgressSamplerReset(t *testing.T) {
	sampler := NewProgressSampler(10)
	sampler.ShouldLog(90, "upload")
	sampler.Reset()

	if !sampler.ShouldLog(0, "upload") {
		t.Fatal("reset sampler should log from the start")
	}
}
