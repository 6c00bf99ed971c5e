package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
)

func TestLevelFromString(t *testing.T) {
	for _, tc := range []struct {
		in       string
		expected Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"Warn", WARN},
		{"warning", WARN},
		{"error", ERROR},
	} {
		level, err := LevelFromString(tc.in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, tc.expected)
	}

	_, err := LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unknown log level")
}

func TestLevelJSON(t *testing.T) {
	data, err := WARN.MarshalJSON()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldEqual, `"Warn"`)

	var level Level
	test.That(t, level.UnmarshalJSON([]byte(`"debug"`)), test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, DEBUG)
	test.That(t, level.UnmarshalJSON([]byte(`3`)), test.ShouldNotBeNil)
}

func TestObservedLogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.Debugw("seeded", "t", 1.5)
	logger.Warn("empty IMU buffer")

	test.That(t, logs.Len(), test.ShouldEqual, 2)
	entries := logs.All()
	test.That(t, entries[0].Message, test.ShouldEqual, "seeded")
	test.That(t, entries[0].ContextMap()["t"], test.ShouldEqual, 1.5)
	test.That(t, entries[1].Level, test.ShouldEqual, zapcore.WarnLevel)
}

func TestSubloggerLevel(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	sub := logger.Sublogger("inertial")
	sub.SetLevel(WARN)
	test.That(t, sub.GetLevel(), test.ShouldEqual, WARN)
	test.That(t, logger.GetLevel(), test.ShouldEqual, DEBUG)

	sub.Info("filtered")
	sub.Warn("kept")
	logger.Info("parent")

	test.That(t, logs.Len(), test.ShouldEqual, 2)
	test.That(t, logs.All()[0].Message, test.ShouldEqual, "kept")
	test.That(t, logs.All()[0].LoggerName, test.ShouldEqual, "inertial")
	test.That(t, logs.All()[1].Message, test.ShouldEqual, "parent")
}

func TestNewLoggerLevels(t *testing.T) {
	logger := NewLogger("featurefront")
	test.That(t, logger.GetLevel(), test.ShouldEqual, INFO)
	logger.SetLevel(DEBUG)
	test.That(t, logger.GetLevel(), test.ShouldEqual, DEBUG)

	test.That(t, NewDebugLogger("startup").GetLevel(), test.ShouldEqual, DEBUG)
}
