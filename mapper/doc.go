// Package mapper translates between persisted records and transfer records.
//
// A correspondence is declared once per (transfer, persisted) pair with
// explicit bindings:
//
//	mapper.Declare[UserDTO, User](
//		mapper.Field("Name", func(d *UserDTO) *string { return &d.Name }, func(p *User) *string { return &p.Name }),
//		mapper.ToTransferOnly("CreatedAt", func(d *UserDTO) *time.Time { return &d.CreatedAt }, func(p *User) *time.Time { return &p.CreatedAt }),
//	)
//
// and built lazily, exactly once, the first time For is called for the pair.
// Members without a binding keep their zero value on the destination side.
package mapper
