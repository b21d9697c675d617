package script

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/skirmish/internal/game/fixed"
)

// Address selects one property: the high nibble is the Scope and the low
// nibble the field within it.
type Address uint8

// Scope is the high nibble of an Address.
type Scope uint8

// Property scopes.
const (
	ScopeGame        Scope = 0x0
	ScopeSelf        Scope = 0x1
	ScopeSelfStats   Scope = 0x2
	ScopeTarget      Scope = 0x3
	ScopeTargetStats Scope = 0x4
	ScopeSpawn       Scope = 0x5
	ScopeSpawnExtra  Scope = 0x6
	ScopeAction      Scope = 0x7
	ScopeCondition   Scope = 0x8
	ScopeStatus      Scope = 0x9
)

// NewAddress combines a scope and field.
func NewAddress(s Scope, field uint8) Address {
	return Address(uint8(s)<<4 | field&0x0F)
}

// Scope returns the high nibble.
func (a Address) Scope() Scope { return Scope(a >> 4) }

// Field returns the low nibble.
func (a Address) Field() uint8 { return uint8(a) & 0x0F }

// Kind distinguishes byte-valued from fixed-valued properties.
type Kind uint8

// Property kinds.
const (
	KindByte Kind = iota
	KindFixed
)

// Value carries a property value of either kind.
type Value struct {
	Kind  Kind
	Byte  uint8
	Fixed fixed.Fixed
}

// ByteValue wraps b.
func ByteValue(b uint8) Value { return Value{Kind: KindByte, Byte: b} }

// FixedValue wraps f.
func FixedValue(f fixed.Fixed) Value { return Value{Kind: KindFixed, Fixed: f} }

// Property describes one addressable field.
type Property struct {
	Name     string
	Kind     Kind
	ReadOnly bool
}

// Core fields shared by the Self, Target and Spawn scopes.
const (
	CoreID uint8 = iota
	CoreGroup
	CoreX
	CoreY
	CoreVX
	CoreVY
	CoreWidth
	CoreHeight
	CoreCollision
	CoreGrounded
	CoreHorizontal
	CoreVertical
	CoreEnmity
	CoreTargetKind
	CoreTargetID
)

// Stats fields shared by the SelfStats and TargetStats scopes. Fields
// StatArmor through StatArmor+5 are armor by element.
const (
	StatHealth uint8 = iota
	StatHealthCap
	StatEnergy
	StatEnergyCap
	StatHealthRegen
	StatEnergyCharge
	StatPower
	StatWeight
	StatJumpForce
	StatMoveSpeed
	StatArmor
)

// Game scope fields.
const (
	GameFrame uint8 = iota
	GameGravity
	GameCharacterCount
	GameMapWidth
	GameMapHeight
	GameTileSize
)

// Spawn extra fields.
const (
	SpawnLife uint8 = iota
	SpawnDef
	SpawnOwner
	SpawnElement
	SpawnPower
)

// Action fields.
const (
	ActionDef uint8 = iota
	ActionCooldown
	ActionEnergyCost
	ActionDuration
)

// Condition fields.
const ConditionDef uint8 = 0

// Status fields.
const (
	StatusDef uint8 = iota
	StatusLife
	StatusStacks
)

var coreProps = [16]*Property{
	CoreID:         {Name: "id", Kind: KindByte, ReadOnly: true},
	CoreGroup:      {Name: "group", Kind: KindByte},
	CoreX:          {Name: "x", Kind: KindFixed},
	CoreY:          {Name: "y", Kind: KindFixed},
	CoreVX:         {Name: "vx", Kind: KindFixed},
	CoreVY:         {Name: "vy", Kind: KindFixed},
	CoreWidth:      {Name: "width", Kind: KindByte},
	CoreHeight:     {Name: "height", Kind: KindByte},
	CoreCollision:  {Name: "collision", Kind: KindByte, ReadOnly: true},
	CoreGrounded:   {Name: "grounded", Kind: KindByte, ReadOnly: true},
	CoreHorizontal: {Name: "hdir", Kind: KindFixed},
	CoreVertical:   {Name: "vdir", Kind: KindFixed},
	CoreEnmity:     {Name: "enmity", Kind: KindByte},
	CoreTargetKind: {Name: "target_kind", Kind: KindByte},
	CoreTargetID:   {Name: "target_id", Kind: KindByte},
}

var statProps = [16]*Property{
	StatHealth:       {Name: "health", Kind: KindFixed},
	StatHealthCap:    {Name: "health_cap", Kind: KindFixed},
	StatEnergy:       {Name: "energy", Kind: KindFixed},
	StatEnergyCap:    {Name: "energy_cap", Kind: KindFixed},
	StatHealthRegen:  {Name: "health_regen", Kind: KindFixed},
	StatEnergyCharge: {Name: "energy_charge", Kind: KindFixed},
	StatPower:        {Name: "power", Kind: KindFixed},
	StatWeight:       {Name: "weight", Kind: KindFixed},
	StatJumpForce:    {Name: "jump_force", Kind: KindFixed},
	StatMoveSpeed:    {Name: "move_speed", Kind: KindFixed},
	StatArmor + 0:    {Name: "armor_punct", Kind: KindByte},
	StatArmor + 1:    {Name: "armor_blast", Kind: KindByte},
	StatArmor + 2:    {Name: "armor_force", Kind: KindByte},
	StatArmor + 3:    {Name: "armor_heat", Kind: KindByte},
	StatArmor + 4:    {Name: "armor_cryo", Kind: KindByte},
	StatArmor + 5:    {Name: "armor_jolt", Kind: KindByte},
}

var scopeTables = map[Scope]struct {
	prefix string
	props  [16]*Property
}{
	ScopeGame: {prefix: "game", props: [16]*Property{
		GameFrame:          {Name: "frame", Kind: KindByte, ReadOnly: true},
		GameGravity:        {Name: "gravity", Kind: KindFixed, ReadOnly: true},
		GameCharacterCount: {Name: "characters", Kind: KindByte, ReadOnly: true},
		GameMapWidth:       {Name: "map_width", Kind: KindByte, ReadOnly: true},
		GameMapHeight:      {Name: "map_height", Kind: KindByte, ReadOnly: true},
		GameTileSize:       {Name: "tile_size", Kind: KindFixed, ReadOnly: true},
	}},
	ScopeSelf:        {prefix: "self", props: coreProps},
	ScopeSelfStats:   {prefix: "self", props: statProps},
	ScopeTarget:      {prefix: "target", props: coreProps},
	ScopeTargetStats: {prefix: "target", props: statProps},
	ScopeSpawn:       {prefix: "spawn", props: coreProps},
	ScopeSpawnExtra: {prefix: "spawn", props: [16]*Property{
		SpawnLife:    {Name: "life", Kind: KindFixed},
		SpawnDef:     {Name: "def", Kind: KindByte, ReadOnly: true},
		SpawnOwner:   {Name: "owner", Kind: KindByte, ReadOnly: true},
		SpawnElement: {Name: "element", Kind: KindByte, ReadOnly: true},
		SpawnPower:   {Name: "power", Kind: KindFixed, ReadOnly: true},
	}},
	ScopeAction: {prefix: "action", props: [16]*Property{
		ActionDef:        {Name: "def", Kind: KindByte, ReadOnly: true},
		ActionCooldown:   {Name: "cooldown", Kind: KindFixed, ReadOnly: true},
		ActionEnergyCost: {Name: "energy_cost", Kind: KindFixed, ReadOnly: true},
		ActionDuration:   {Name: "duration", Kind: KindFixed, ReadOnly: true},
	}},
	ScopeCondition: {prefix: "condition", props: [16]*Property{
		ConditionDef: {Name: "def", Kind: KindByte, ReadOnly: true},
	}},
	ScopeStatus: {prefix: "status", props: [16]*Property{
		StatusDef:    {Name: "def", Kind: KindByte, ReadOnly: true},
		StatusLife:   {Name: "life", Kind: KindFixed},
		StatusStacks: {Name: "stacks", Kind: KindByte},
	}},
}

var addressByName = func() map[string]Address {
	m := make(map[string]Address)
	for a := 0; a < 256; a++ {
		if name, ok := Address(a).Name(); ok {
			m[name] = Address(a)
		}
	}
	return m
}()

// Lookup returns the property at a, or false when a is not a defined address.
func Lookup(a Address) (Property, bool) {
	t, ok := scopeTables[a.Scope()]
	if !ok {
		return Property{}, false
	}
	p := t.props[a.Field()]
	if p == nil {
		return Property{}, false
	}
	return *p, true
}

// Name returns the assembler name of a, e.g. "self.x".
func (a Address) Name() (string, bool) {
	p, ok := Lookup(a)
	if !ok {
		return "", false
	}
	return scopeTables[a.Scope()].prefix + "." + p.Name, true
}

// String renders the assembler name, or the hex value for undefined addresses.
func (a Address) String() string {
	if name, ok := a.Name(); ok {
		return name
	}
	return fmt.Sprintf("0x%02x", uint8(a))
}

// ParseAddress accepts an assembler name or a numeric byte.
func ParseAddress(s string) (Address, error) {
	if a, ok := addressByName[strings.ToLower(s)]; ok {
		return a, nil
	}
	n, err := parseByte(s)
	if err != nil {
		return 0, fmt.Errorf("unknown property %q", s)
	}
	if _, ok := Lookup(Address(n)); !ok {
		return 0, fmt.Errorf("%w: 0x%02x", ErrBadAddress, n)
	}
	return Address(n), nil
}

// CharacterScoped reports whether a addresses a character core or stats field
// relative to the executor, which is what ReadOf and WriteOf redirect.
func (a Address) CharacterScoped() bool {
	s := a.Scope()
	return s == ScopeSelf || s == ScopeSelfStats
}
