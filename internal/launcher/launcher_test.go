package launcher

import (
	"testing"

	"github.com/sbyna/h5bench/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPrefix(t *testing.T) {
	tests := []struct {
		name     string
		spec     types.LaunchSpec
		expected []string
	}{
		{
			name:     "mpirun",
			spec:     types.LaunchSpec{Command: "mpirun", Ranks: 4},
			expected: []string{"mpirun", "-np", "4"},
		},
		{
			name:     "mpiexec",
			spec:     types.LaunchSpec{Command: "mpiexec", Ranks: 2},
			expected: []string{"mpiexec", "-np", "2"},
		},
		{
			name:     "srun",
			spec:     types.LaunchSpec{Command: "srun", Ranks: 16},
			expected: []string{"srun", "--cpu_bind=cores", "-n", "16"},
		},
		{
			name:     "Unknown launcher degrades to empty prefix",
			spec:     types.LaunchSpec{Command: "jsrun", Ranks: 8},
			expected: nil,
		},
		{
			name:     "Explicit configuration wins over ranks",
			spec:     types.LaunchSpec{Command: "mpirun", Ranks: 4, Configuration: "-np 8 --oversubscribe"},
			expected: []string{"mpirun", "-np", "8", "--oversubscribe"},
		},
		{
			name:     "Explicit configuration respects quoting",
			spec:     types.LaunchSpec{Command: "srun", Configuration: `-n 4 --export "ALL,FOO=a b"`},
			expected: []string{"srun", "-n", "4", "--export", "ALL,FOO=a b"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			prefix, err := BuildPrefix(tc.spec)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, prefix)
		})
	}
}

func TestBuildPrefixUnparseableConfiguration(t *testing.T) {
	_, err := BuildPrefix(types.LaunchSpec{Command: "mpirun", Configuration: `-np "4`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse mpi.configuration")
}
