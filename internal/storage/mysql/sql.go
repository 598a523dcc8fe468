package mysql

const getRoomSQL = `
SELECT id, property_id, room_type_id, number, floor, wing, amenities, views, accessible, status
FROM rooms
WHERE id = ?
`

const listRoomsSQL = `
SELECT id, property_id, room_type_id, number, floor, wing, amenities, views, accessible, status
FROM rooms
WHERE property_id = ?
ORDER BY id
`

const getRoomTypeSQL = `
SELECT id, property_id, name, category_rank, max_occupancy
FROM room_types
WHERE id = ?
`

const listRoomTypesSQL = `
SELECT id, property_id, name, category_rank, max_occupancy
FROM room_types
WHERE property_id = ?
ORDER BY category_rank, id
`

const updateRoomStatusSQL = `
UPDATE rooms SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
`

// Overlap on half-open ranges: existing.check_in < q.check_out AND
// q.check_in < existing.check_out.
const listBookingsSQL = `
SELECT id, room_id, check_in, check_out
FROM bookings
WHERE property_id = ?
  AND check_in < ?
  AND ? < check_out
ORDER BY id
`

const getPricingConfigSQL = `
SELECT room_type_id, config
FROM pricing_configs
WHERE room_type_id = ?
`
