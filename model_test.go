package tiered

import (
	"fmt"
	"slices"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/commands"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/npillmayer/tiered/layout"
)

// The state machine runs random command sequences against a Sequence and a
// plain slice. Every command returns the sequence content after the step, or
// the error it ran into.

type outcome struct {
	vals []int
	err  error
}

func observe(s *Sequence[int], err error) commands.Result {
	if err == nil {
		err = s.Check()
	}
	return outcome{vals: s.Slice(), err: err}
}

func sameAsModel(state commands.State, result commands.Result) *gopter.PropResult {
	r := result.(outcome)
	model := state.([]int)
	if r.err != nil || len(r.vals) != len(model) || !slices.Equal(r.vals, model) {
		return &gopter.PropResult{Status: gopter.PropFalse}
	}
	return &gopter.PropResult{Status: gopter.PropTrue}
}

type pushBackCommand int

func (c pushBackCommand) Run(s commands.SystemUnderTest) commands.Result {
	seq := s.(*Sequence[int])
	return observe(seq, seq.PushBack(int(c)))
}

func (c pushBackCommand) NextState(state commands.State) commands.State {
	return append(slices.Clone(state.([]int)), int(c))
}

func (pushBackCommand) PreCondition(commands.State) bool { return true }

func (pushBackCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	return sameAsModel(state, result)
}

func (c pushBackCommand) String() string { return fmt.Sprintf("PushBack(%d)", int(c)) }

type pushFrontCommand int

func (c pushFrontCommand) Run(s commands.SystemUnderTest) commands.Result {
	seq := s.(*Sequence[int])
	return observe(seq, seq.PushFront(int(c)))
}

func (c pushFrontCommand) NextState(state commands.State) commands.State {
	return slices.Insert(slices.Clone(state.([]int)), 0, int(c))
}

func (pushFrontCommand) PreCondition(commands.State) bool { return true }

func (pushFrontCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	return sameAsModel(state, result)
}

func (c pushFrontCommand) String() string { return fmt.Sprintf("PushFront(%d)", int(c)) }

type popCommand bool // true pops at the back

func (c popCommand) Run(s commands.SystemUnderTest) commands.Result {
	seq := s.(*Sequence[int])
	if c {
		seq.PopBack()
	} else {
		seq.PopFront()
	}
	return observe(seq, nil)
}

func (c popCommand) NextState(state commands.State) commands.State {
	model := state.([]int)
	if c {
		return slices.Clone(model[:len(model)-1])
	}
	return slices.Clone(model[1:])
}

func (popCommand) PreCondition(state commands.State) bool { return len(state.([]int)) > 0 }

func (popCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	return sameAsModel(state, result)
}

func (c popCommand) String() string {
	if c {
		return "PopBack"
	}
	return "PopFront"
}

type insertCommand struct{ pos, val int }

func (c insertCommand) Run(s commands.SystemUnderTest) commands.Result {
	seq := s.(*Sequence[int])
	return observe(seq, seq.Insert(c.pos, c.val))
}

func (c insertCommand) NextState(state commands.State) commands.State {
	return slices.Insert(slices.Clone(state.([]int)), c.pos, c.val)
}

func (c insertCommand) PreCondition(state commands.State) bool {
	return c.pos <= len(state.([]int))
}

func (insertCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	return sameAsModel(state, result)
}

func (c insertCommand) String() string { return fmt.Sprintf("Insert(%d,%d)", c.pos, c.val) }

type eraseCommand int

func (c eraseCommand) Run(s commands.SystemUnderTest) commands.Result {
	seq := s.(*Sequence[int])
	_, err := seq.EraseAt(int(c))
	return observe(seq, err)
}

func (c eraseCommand) NextState(state commands.State) commands.State {
	return slices.Delete(slices.Clone(state.([]int)), int(c), int(c)+1)
}

func (c eraseCommand) PreCondition(state commands.State) bool {
	return int(c) < len(state.([]int))
}

func (eraseCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	return sameAsModel(state, result)
}

func (c eraseCommand) String() string { return fmt.Sprintf("EraseAt(%d)", int(c)) }

type resizeCommand int

func (c resizeCommand) Run(s commands.SystemUnderTest) commands.Result {
	seq := s.(*Sequence[int])
	return observe(seq, seq.Resize(int(c), -1))
}

func (c resizeCommand) NextState(state commands.State) commands.State {
	model := slices.Clone(state.([]int))
	for len(model) < int(c) {
		model = append(model, -1)
	}
	return model[:int(c)]
}

func (resizeCommand) PreCondition(commands.State) bool { return true }

func (resizeCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	return sameAsModel(state, result)
}

func (c resizeCommand) String() string { return fmt.Sprintf("Resize(%d)", int(c)) }

type shrinkCommand struct{}

func (shrinkCommand) Run(s commands.SystemUnderTest) commands.Result {
	seq := s.(*Sequence[int])
	seq.ShrinkToFit()
	return observe(seq, nil)
}

func (shrinkCommand) NextState(state commands.State) commands.State { return state }
func (shrinkCommand) PreCondition(commands.State) bool              { return true }

func (shrinkCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	return sameAsModel(state, result)
}

func (shrinkCommand) String() string { return "ShrinkToFit" }

func sequenceCommands(cfg Config[int]) *commands.ProtoCommands {
	return &commands.ProtoCommands{
		NewSystemUnderTestFunc: func(initial commands.State) commands.SystemUnderTest {
			s, err := FromSlice(cfg, initial.([]int))
			if err != nil {
				panic(err)
			}
			return s
		},
		InitialStateGen: gen.SliceOf(gen.IntRange(0, 1000)).Map(func(vals []int) []int {
			return slices.Clone(vals)
		}),
		GenCommandFunc: func(state commands.State) gopter.Gen {
			n := len(state.([]int))
			return gen.Weighted([]gen.WeightedGen{
				{Weight: 10, Gen: gen.IntRange(0, 1000).Map(func(v int) commands.Command { return pushBackCommand(v) })},
				{Weight: 10, Gen: gen.IntRange(0, 1000).Map(func(v int) commands.Command { return pushFrontCommand(v) })},
				{Weight: 8, Gen: gen.Bool().Map(func(b bool) commands.Command { return popCommand(b) })},
				{Weight: 30, Gen: gen.IntRange(0, n).Map(func(p int) commands.Command {
					return insertCommand{pos: p, val: 2000 + p}
				})},
				{Weight: 25, Gen: gen.IntRange(0, max(n-1, 0)).Map(func(p int) commands.Command { return eraseCommand(p) })},
				{Weight: 2, Gen: gen.IntRange(0, 2*n+8).Map(func(k int) commands.Command { return resizeCommand(k) })},
				{Weight: 1, Gen: gen.Const(shrinkCommand{})},
			})
		},
	}
}

func TestSequenceStateMachine(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	if !testing.Short() {
		parameters.MaxSize = 256
	}
	properties := gopter.NewProperties(parameters)
	properties.Property("speed layout follows slice model",
		commands.Prop(sequenceCommands(Config[int]{BucketCapacity: 4})))
	properties.Property("memory layout follows slice model",
		commands.Prop(sequenceCommands(Config[int]{Layout: layout.Memory, BucketCapacity: 16, CacheBack: true})))
	properties.TestingRun(t)
}

func TestSequenceProperties(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("insert then erase restores the sequence", prop.ForAll(
		func(vals []int, at int, v int) bool {
			s, err := FromSlice(Config[int]{BucketCapacity: 4}, vals)
			if err != nil {
				return false
			}
			pos := at % (len(vals) + 1)
			if s.Insert(pos, v) != nil {
				return false
			}
			got, err := s.EraseAt(pos)
			return err == nil && got == v && slices.Equal(s.Slice(), vals) && s.Check() == nil
		},
		gen.SliceOf(gen.Int()),
		gen.IntRange(0, 10000),
		gen.Int(),
	))

	properties.Property("layouts hold the same content", prop.ForAll(
		func(positions []int) bool {
			speed, _ := New(Config[int]{BucketCapacity: 4})
			memory, _ := New(Config[int]{Layout: layout.Memory, BucketCapacity: 32})
			for i, p := range positions {
				pos := p % (speed.Len() + 1)
				if speed.Insert(pos, i) != nil || memory.Insert(pos, i) != nil {
					return false
				}
			}
			return Equal(speed, memory) && speed.Check() == nil && memory.Check() == nil
		},
		gen.SliceOf(gen.IntRange(0, 1<<20)),
	))

	properties.Property("assign is idempotent", prop.ForAll(
		func(n int, v int) bool {
			s, _ := New(Config[int]{BucketCapacity: 8})
			if s.Assign(n, v) != nil {
				return false
			}
			first, sizes := s.Slice(), s.BucketSizes()
			if s.Assign(n, v) != nil {
				return false
			}
			return slices.Equal(first, s.Slice()) && slices.Equal(sizes, s.BucketSizes())
		},
		gen.IntRange(0, 500),
		gen.Int(),
	))

	properties.TestingRun(t)
}

// FuzzSequence interprets the input as a list of (opcode, argument) pairs.
func FuzzSequence(f *testing.F) {
	f.Add([]byte{0, 1, 0, 2, 2, 0, 3, 1, 1, 9, 4, 0})
	f.Add([]byte{2, 5, 2, 5, 2, 5, 2, 5, 2, 5, 3, 2, 3, 2, 3, 2})
	f.Fuzz(func(t *testing.T, data []byte) {
		s, err := New(Config[int]{BucketCapacity: 4})
		if err != nil {
			t.Fatal(err)
		}
		var model []int
		for i := 0; i+1 < len(data); i += 2 {
			arg := int(data[i+1])
			switch data[i] % 6 {
			case 0:
				_ = s.PushBack(arg)
				model = append(model, arg)
			case 1:
				_ = s.PushFront(arg)
				model = slices.Insert(model, 0, arg)
			case 2:
				pos := arg % (len(model) + 1)
				if err := s.Insert(pos, i); err != nil {
					t.Fatal(err)
				}
				model = slices.Insert(model, pos, i)
			case 3:
				if len(model) > 0 {
					pos := arg % len(model)
					if _, err := s.EraseAt(pos); err != nil {
						t.Fatal(err)
					}
					model = slices.Delete(model, pos, pos+1)
				}
			case 4:
				if len(model) > 0 {
					s.PopBack()
					model = model[:len(model)-1]
				}
			case 5:
				if len(model) > 0 {
					s.PopFront()
					model = model[1:]
				}
			}
			if err := s.Check(); err != nil {
				t.Fatalf("step %d: %v", i/2, err)
			}
		}
		if got := s.Slice(); len(model) > 0 && !slices.Equal(got, model) {
			t.Fatalf("content mismatch:\n got=%v\nwant=%v", got, model)
		}
	})
}
