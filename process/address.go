package process

// AddressId names a well-known location in the guest's data, which the
// host glue reads or writes directly. The locations are provided per
// translated program.
type AddressId int

//go:generate go tool stringer -linecomment -type=AddressId
const (
	ADDRESS_ROOM     = AddressId(0) // room
	ADDRESS_KEYBOARD = AddressId(1) // keyboard
	ADDRESS_WORLD    = AddressId(2) // world
	ADDRESS_PALETTE  = AddressId(3) // palette
)

// AddressIds lists every well-known address.
var AddressIds = []AddressId{
	ADDRESS_ROOM,
	ADDRESS_KEYBOARD,
	ADDRESS_WORLD,
	ADDRESS_PALETTE,
}
