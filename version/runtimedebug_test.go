package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildInfo(t *testing.T) {
	bi, err := BuildInfo()
	require.NoError(t, err)
	require.NotNil(t, bi)
	require.NotEmpty(t, Module())
}

func TestModuleVersion(t *testing.T) {
	for _, tc := range []struct {
		name string
		bi   *debug.BuildInfo
		want string
	}{
		{
			name: "main module",
			bi:   &debug.BuildInfo{Main: debug.Module{Path: ModulePath, Version: "v1.2.0"}},
			want: "v1.2.0",
		},
		{
			name: "dependency",
			bi: &debug.BuildInfo{
				Main: debug.Module{Path: "example.com/app", Version: "v0.1.0"},
				Deps: []*debug.Module{{Path: ModulePath, Version: "v1.3.1"}},
			},
			want: "v1.3.1",
		},
		{
			name: "replaced dependency",
			bi: &debug.BuildInfo{
				Deps: []*debug.Module{{
					Path:    ModulePath,
					Version: "v1.3.1",
					Replace: &debug.Module{Path: "example.com/fork", Version: "v1.3.2"},
				}},
			},
			want: "v1.3.2",
		},
		{
			name: "absent",
			bi:   &debug.BuildInfo{Main: debug.Module{Path: "example.com/app"}},
			want: Unknown,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, moduleVersion(tc.bi, ModulePath))
		})
	}
}
