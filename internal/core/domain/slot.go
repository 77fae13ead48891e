package domain

// Slot is a delivery line number handed to the registration procedure as
// the goods item number.
type Slot int32

// DeliverySlots is the fixed cycle order.
var DeliverySlots = []Slot{182, 185, 186, 226}

// InitialSlot is the first member of the cycle.
const InitialSlot Slot = 182

func (s Slot) Valid() bool {
	for _, v := range DeliverySlots {
		if v == s {
			return true
		}
	}
	return false
}

// Next returns the slot following s. Values outside the cycle reset to
// the first member.
func (s Slot) Next() Slot {
	for i, v := range DeliverySlots {
		if v == s {
			return DeliverySlots[(i+1)%len(DeliverySlots)]
		}
	}
	return DeliverySlots[0]
}
