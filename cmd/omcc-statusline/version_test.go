package main

import (
	"runtime/debug"
	"testing"
)

func TestBuildVersion(t *testing.T) {
	tests := []struct {
		name     string
		explicit string
		info     *debug.BuildInfo
		ok       bool
		want     string
	}{
		{name: "explicit wins", explicit: "v2.0.0", info: &debug.BuildInfo{Main: debug.Module{Version: "v1.0.0"}}, ok: true, want: "v2.0.0"},
		{name: "module version", explicit: "dev", info: &debug.BuildInfo{Main: debug.Module{Version: "v1.4.1"}}, ok: true, want: "v1.4.1"},
		{name: "devel build", explicit: "dev", info: &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}, ok: true, want: "dev"},
		{name: "no build info", explicit: "", ok: false, want: "dev"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			oldVersion, oldRead := version, readBuildInfo
			t.Cleanup(func() {
				version = oldVersion
				readBuildInfo = oldRead
			})
			version = tc.explicit
			readBuildInfo = func() (*debug.BuildInfo, bool) { return tc.info, tc.ok }

			if got := buildVersion(); got != tc.want {
				t.Fatalf("buildVersion() = %q, want %q", got, tc.want)
			}
		})
	}
}
