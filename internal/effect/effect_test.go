package effect

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Effect
		wantErr string
	}{
		{in: "Variable.Read", want: Effect{Variable, Read}},
		{in: "Stack.Alloc", want: Effect{Stack, Alloc}},
		{in: "TensorArray.Write", want: Effect{TensorArray, Write}},
		{in: "Variable", wantErr: "expected Resource.Access"},
		{in: "Queue.Read", wantErr: "unknown resource"},
		{in: "Variable.Free", wantErr: "unknown access"},
		{in: "variable.read", wantErr: "unknown resource"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestListQueries(t *testing.T) {
	l := List{{Variable, Read}, {Variable, Write}, {Stack, Alloc}}

	assert.Equal(t, List{{Variable, Read}}, l.Reads())
	assert.Equal(t, List{{Variable, Write}}, l.Writes())
	assert.Equal(t, List{{Stack, Alloc}}, l.Allocs())
	assert.True(t, l.Touches(Stack))
	assert.False(t, l.Touches(TensorArray))
	assert.False(t, l.Pure())
	assert.True(t, List{}.Pure())
	assert.Equal(t, []string{"Variable.Read", "Variable.Write", "Stack.Alloc"}, l.Strings())
}

func TestConflicts(t *testing.T) {
	read := List{{Variable, Read}}
	write := List{{Variable, Write}}
	stack := List{{Stack, Alloc}}

	assert.False(t, read.Conflicts(read), "readers never conflict")
	assert.True(t, read.Conflicts(write))
	assert.True(t, write.Conflicts(read))
	assert.True(t, write.Conflicts(write))
	assert.False(t, write.Conflicts(stack), "different resources are independent")
	assert.False(t, List{}.Conflicts(write))
}

func TestEffectJSON(t *testing.T) {
	data, err := json.Marshal(List{{Variable, Read}})
	require.NoError(t, err)
	assert.Equal(t, `["Variable.Read"]`, string(data))
}
