/*
Copyright © 2026 the wrfoptics authors.
This file is part of wrfoptics.

wrfoptics is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

wrfoptics is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with wrfoptics.  If not, see <http://www.gnu.org/licenses/>.
*/

package opticsutil

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level string
		want  logrus.Level
	}{
		{level: "DEBUG", want: logrus.DebugLevel},
		{level: "info", want: logrus.InfoLevel},
		{level: "WARN", want: logrus.WarnLevel},
		{level: "Error", want: logrus.ErrorLevel},
		{level: "VERBOSE", want: logrus.InfoLevel},
		{level: "", want: logrus.InfoLevel},
	}
	for _, test := range tests {
		t.Run(test.level, func(t *testing.T) {
			log := newLogger(new(bytes.Buffer), test.level)
			if log.Level != test.want {
				t.Errorf("have %v, want %v", log.Level, test.want)
			}
		})
	}
}

func TestNewLoggerOutput(t *testing.T) {
	buf := new(bytes.Buffer)
	log := newLogger(buf, "not-a-level")
	log.Debug("hidden")
	log.Info("shown")
	if out := buf.String(); strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("output: %s", out)
	}
}
