package brisc

import (
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Instruction maps input ports to bit patterns. Patterns are stored most
// significant bit first, as written.
type Instruction struct {
	Name     string
	Patterns map[string]Bits

	vector Bits // pattern over Profile.InputSignals, set by validation
}

// Pattern returns the pattern for a port, or nil if none was given.
func (inst *Instruction) Pattern(port string) Bits { return inst.Patterns[port] }

// Vector returns the instruction's value for every input signal, in the
// order of Profile.InputSignals. Only available after validation.
func (inst *Instruction) Vector() Bits { return inst.vector }

// InstructionSet represents an ordered set of instructions along with the
// clocking information of the circuit they drive.
type InstructionSet struct {
	Clock         string
	PipelineDepth int

	instructions []*Instruction
	index        map[string]*Instruction
	validated    bool
}

// NewInstructionSet returns a new, empty instruction set.
func NewInstructionSet(clock string, pipelineDepth int) *InstructionSet {
	return &InstructionSet{
		Clock:         clock,
		PipelineDepth: pipelineDepth,
		index:         make(map[string]*Instruction),
	}
}

// AddInstruction appends an instruction. Patterns use the literal syntax
// accepted by ExpandLiteral.
func (s *InstructionSet) AddInstruction(name string, patterns map[string]string) error {
	if _, ok := s.index[name]; ok {
		return validationErrorf(name, "", "duplicate instruction")
	}

	inst := &Instruction{Name: name, Patterns: make(map[string]Bits, len(patterns))}
	for port, lit := range patterns {
		bits, err := ExpandLiteral(lit)
		if err != nil {
			return validationErrorf(name, port, "%s", err)
		}
		inst.Patterns[port] = bits
	}

	s.instructions = append(s.instructions, inst)
	s.index[name] = inst
	s.validated = false
	return nil
}

// Instruction returns an instruction by name, or nil.
func (s *InstructionSet) Instruction(name string) *Instruction { return s.index[name] }

// Names returns instruction names in declaration order.
func (s *InstructionSet) Names() []string {
	a := make([]string, len(s.instructions))
	for i, inst := range s.instructions {
		a[i] = inst.Name
	}
	return a
}

// Len returns the number of instructions.
func (s *InstructionSet) Len() int { return len(s.instructions) }

// Validated returns true if the set passed validation against a profile.
func (s *InstructionSet) Validated() bool { return s.validated }

// Validate checks the instruction set against the ports of a circuit. Omitted
// ports are filled with unknown bits and every instruction's input vector is
// computed.
func (s *InstructionSet) Validate(p *Profile) error {
	for _, name := range []string{InstructionReset, InstructionNop} {
		if s.index[name] == nil {
			return validationErrorf(name, "", "required instruction not defined")
		}
	}

	if s.PipelineDepth < 1 {
		return validationErrorf("", "pipeline-depth", "must be an integer >= 1, got %d", s.PipelineDepth)
	}

	if s.Clock == "" {
		return validationErrorf("", "clock", "clock port required")
	} else if p.Input(s.Clock) == nil {
		return validationErrorf("", "clock", "%q is not an input port", s.Clock)
	}

	for _, inst := range s.instructions {
		ports := make([]string, 0, len(inst.Patterns))
		for port := range inst.Patterns {
			ports = append(ports, port)
		}
		sort.Strings(ports)

		for _, port := range ports {
			w := p.Input(port)
			if w == nil {
				if w := p.Netlist().Wire(port); w != nil && w.IsPort() {
					return validationErrorf(inst.Name, port, "not an input port")
				}
				return validationErrorf(inst.Name, port, "unknown port")
			} else if n := len(inst.Patterns[port]); n != w.Width() {
				return validationErrorf(inst.Name, port, "pattern width %d does not match port width %d", n, w.Width())
			}
		}

		for _, w := range p.Inputs() {
			if _, ok := inst.Patterns[w.Name]; !ok {
				inst.Patterns[w.Name] = NewBits(w.Width(), BitX)
			}
		}
		inst.vector = s.vector(p, inst)
	}

	s.validated = true
	return nil
}

// vector flattens an instruction's port patterns over the profile's input
// signals. Wire bit 0 takes the last character of the pattern.
func (s *InstructionSet) vector(p *Profile, inst *Instruction) Bits {
	n := p.Netlist()
	seen := make(map[SignalID]struct{})
	a := make(Bits, 0, len(p.InputSignals()))
	for _, w := range p.Inputs() {
		pattern := inst.Patterns[w.Name]
		for j, bit := range w.Bits {
			sig := n.Canonical(bit)
			if _, ok := seen[sig]; ok {
				continue
			}
			seen[sig] = struct{}{}
			a = append(a, pattern[len(pattern)-1-j])
		}
	}
	assert(len(a) == len(p.InputSignals()), "instruction vector: %d bits for %d inputs", len(a), len(p.InputSignals()))
	return a
}

// ReadInstructionSet decodes an instruction set from YAML or JSON.
func ReadInstructionSet(r io.Reader) (*InstructionSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseInstructionSet(data)
}

// ParseInstructionSet decodes an instruction set from YAML or JSON:
//
//	clock: clk
//	pipeline-depth: 2
//	instructions:
//	  reset: {rst: 1}
//	  nop:   {rst: 0, op: 2'b00}
//	  inc:   {ports: {rst: 0, op: 2'b01}}
//
// Instructions keep their declaration order.
func ParseInstructionSet(data []byte) (*InstructionSet, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "decode instruction set")
	}

	s := NewInstructionSet("", 0)
	if len(doc.Content) == 0 {
		return s, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, validationErrorf("", "", "instruction set must be a mapping")
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		switch key.Value {
		case "clock":
			if value.Kind != yaml.ScalarNode {
				return nil, validationErrorf("", "clock", "must be a port name")
			}
			s.Clock = value.Value

		case "pipeline-depth", "pipeline_depth":
			n, err := strconv.Atoi(value.Value)
			if value.Kind != yaml.ScalarNode || err != nil {
				return nil, validationErrorf("", "pipeline-depth", "must be an integer >= 1, got %q", value.Value)
			} else if n < 1 {
				return nil, validationErrorf("", "pipeline-depth", "must be an integer >= 1, got %d", n)
			}
			s.PipelineDepth = n

		case "instructions":
			if err := s.decodeInstructions(value); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

func (s *InstructionSet) decodeInstructions(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return validationErrorf("", "instructions", "must be a mapping of instruction names")
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		name, body := node.Content[i].Value, node.Content[i+1]
		if body.Kind == yaml.ScalarNode && body.Tag == "!!null" {
			body = &yaml.Node{Kind: yaml.MappingNode}
		} else if body.Kind != yaml.MappingNode {
			return validationErrorf(name, "", "must be a mapping of ports")
		}

		// Accept the nested form {ports: {...}}.
		if len(body.Content) == 2 && body.Content[0].Value == "ports" && body.Content[1].Kind == yaml.MappingNode {
			body = body.Content[1]
		}

		patterns := make(map[string]string, len(body.Content)/2)
		for j := 0; j+1 < len(body.Content); j += 2 {
			port, value := body.Content[j].Value, body.Content[j+1]
			if value.Kind != yaml.ScalarNode {
				return validationErrorf(name, port, "pattern must be a scalar")
			} else if _, ok := patterns[port]; ok {
				return validationErrorf(name, port, "duplicate port")
			}
			patterns[port] = value.Value
		}

		if err := s.AddInstruction(name, patterns); err != nil {
			return err
		}
	}
	return nil
}

var (
	sizedLiteralRegex = regexp.MustCompile(`^([0-9]+)'([bBhH])(.*)$`)
	rawLiteralRegex   = regexp.MustCompile(`^[01xX_]+$`)
)

// ExpandLiteral expands a bit pattern into bits, most significant first.
// Accepted forms are raw bit strings ("10x1"), sized binary ("4'b10x1") and
// sized hex ("8'hAx"). Underscores are ignored. A hex digit expands to four
// bits and x to four unknown bits, so a sized hex literal must declare a
// multiple of four bits.
func ExpandLiteral(s string) (Bits, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty pattern")
	}

	m := sizedLiteralRegex.FindStringSubmatch(s)
	if m == nil {
		if !rawLiteralRegex.MatchString(s) {
			return nil, errors.Errorf("invalid character in pattern %q", s)
		}
		bits, err := ParseBits(s)
		if err != nil {
			return nil, err
		} else if len(bits) == 0 {
			return nil, errors.Errorf("empty pattern %q", s)
		}
		return bits, nil
	}

	width, err := strconv.Atoi(m[1])
	if err != nil || width < 1 {
		return nil, errors.Errorf("invalid width in pattern %q", s)
	}

	var bits Bits
	switch m[2] {
	case "b", "B":
		if bits, err = ParseBits(m[3]); err != nil {
			return nil, errors.Errorf("invalid character in pattern %q", s)
		}
	case "h", "H":
		if bits, err = expandHex(m[3]); err != nil {
			return nil, errors.Wrapf(err, "pattern %q", s)
		}
	}

	if len(bits) != width {
		return nil, errors.Errorf("pattern %q expands to %d bits", s, len(bits))
	}
	return bits, nil
}

// expandHex expands hex digits to four bits each, most significant first.
func expandHex(s string) (Bits, error) {
	bits := make(Bits, 0, len(s)*4)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '_' {
			continue
		} else if c == 'x' || c == 'X' {
			bits = append(bits, BitX, BitX, BitX, BitX)
			continue
		}

		v, err := strconv.ParseUint(string(c), 16, 8)
		if err != nil {
			return nil, errors.Errorf("invalid hex digit %q", c)
		}
		for j := 3; j >= 0; j-- {
			if v&(1<<uint(j)) != 0 {
				bits = append(bits, Bit1)
			} else {
				bits = append(bits, Bit0)
			}
		}
	}
	return bits, nil
}

// LoadInstructionSet decodes an instruction set and validates it against p.
func LoadInstructionSet(r io.Reader, p *Profile) (*InstructionSet, error) {
	s, err := ReadInstructionSet(r)
	if err != nil {
		return nil, err
	} else if err := s.Validate(p); err != nil {
		return nil, err
	}
	return s, nil
}
