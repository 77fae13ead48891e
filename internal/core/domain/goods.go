package domain

// GoodsState is the RegistrationState column of a goods record.
type GoodsState int

const (
	GoodsStatePending    GoodsState = 1
	GoodsStateRegistered GoodsState = 2
)

func (s GoodsState) String() string {
	switch s {
	case GoodsStatePending:
		return "pending"
	case GoodsStateRegistered:
		return "registered"
	default:
		return "unknown"
	}
}

// ItemState is the ItemState column of an item record.
type ItemState int

const (
	ItemStateUnregistered ItemState = 0
	ItemStateActive       ItemState = 1
)

func (s ItemState) String() string {
	switch s {
	case ItemStateUnregistered:
		return "unregistered"
	case ItemStateActive:
		return "active"
	default:
		return "unknown"
	}
}

type GoodsRecord struct {
	GoodsID           int64
	LabelID           int64
	RegistrationState GoodsState
}

type ItemRecord struct {
	LabelID   int64
	ItemState ItemState
}

// goodsIDLowModulus splits a goods id into a stable prefix and a rolling
// five digit remainder.
const goodsIDLowModulus = 100000

// NextGoodsID derives the goods id that follows max. The low five digits
// are incremented and wrap to 00000 without carrying into the prefix.
func NextGoodsID(max int64) int64 {
	if max < 0 {
		max = 0
	}
	prefix := max / goodsIDLowModulus
	low := (max%goodsIDLowModulus + 1) % goodsIDLowModulus
	return prefix*goodsIDLowModulus + low
}

// GoodsIDWrapped reports whether deriving from max rolled the remainder over.
func GoodsIDWrapped(max int64) bool {
	return max >= 0 && max%goodsIDLowModulus == goodsIDLowModulus-1
}
