package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldKind(t *testing.T) {
	t.Run("valid members", func(t *testing.T) {
		for _, k := range []FieldKind{KindText, KindInteger, KindDecimal, KindBoolean, KindList, KindMap, KindIdentifier} {
			assert.True(t, k.Valid(), k)
		}
		assert.False(t, FieldKind("string").Valid())
	})

	t.Run("numeric kinds", func(t *testing.T) {
		assert.True(t, KindInteger.Numeric())
		assert.True(t, KindDecimal.Numeric())
		assert.False(t, KindText.Numeric())
		assert.False(t, KindIdentifier.Numeric())
	})
}

func TestOperation(t *testing.T) {
	t.Run("entity operations exclude transactions", func(t *testing.T) {
		assert.True(t, OpQuery.ValidForEntity())
		assert.True(t, OpBatchWrite.ValidForEntity())
		assert.False(t, OpTransactWrite.ValidForEntity())
		assert.False(t, Operation("upsert").ValidForEntity())
	})

	t.Run("transaction operations", func(t *testing.T) {
		assert.True(t, OpTransactWrite.ValidForTransaction())
		assert.True(t, OpTransactGet.ValidForTransaction())
		assert.False(t, OpPut.ValidForTransaction())
	})

	t.Run("read classification", func(t *testing.T) {
		assert.True(t, OpGet.Read())
		assert.True(t, OpScan.Read())
		assert.True(t, OpTransactGet.Read())
		assert.False(t, OpPut.Read())
		assert.False(t, OpTransactWrite.Read())
	})
}

func TestRangeCondition(t *testing.T) {
	assert.True(t, RangeBetween.Valid())
	assert.False(t, RangeCondition("begins_with").Valid())
	assert.Equal(t, 2, RangeBetween.Operands())
	assert.Equal(t, 1, RangePrefix.Operands())
	assert.Equal(t, 1, RangeGTE.Operands())
}

func TestProjectionAndShape(t *testing.T) {
	assert.True(t, ProjectInclude.Valid())
	assert.False(t, Projection("only").Valid())
	assert.True(t, ShapeHeterogeneous.Valid())
	assert.False(t, ReturnShape("many").Valid())
}

func TestParticipantAction(t *testing.T) {
	assert.True(t, ActionPut.ValidFor(OpTransactWrite))
	assert.True(t, ActionConditionCheck.ValidFor(OpTransactWrite))
	assert.False(t, ActionGet.ValidFor(OpTransactWrite))
	assert.True(t, ActionGet.ValidFor(OpTransactGet))
	assert.False(t, ActionDelete.ValidFor(OpTransactGet))
	assert.Equal(t, []string{"get"}, ParticipantActions(OpTransactGet))
}

func TestSuggest(t *testing.T) {
	t.Run("close typo is suggested", func(t *testing.T) {
		assert.Equal(t, "text", Suggest("txt", FieldKinds()))
		assert.Equal(t, "between", Suggest("beteen", RangeConditions()))
		assert.Equal(t, "StatusIndex", Suggest("StatusIdx", []string{"OwnerIndex", "StatusIndex"}))
	})

	t.Run("distant values yield no suggestion", func(t *testing.T) {
		assert.Equal(t, "", Suggest("zzzzzzzz", FieldKinds()))
	})

	t.Run("ties are deterministic", func(t *testing.T) {
		got := Suggest("ab", []string{"aa", "bb"})
		assert.Equal(t, "aa", got)
	})
}
