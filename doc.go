// Package crudkit provides a generic service layer over persisted records.
//
// A Service pairs a transfer type with a persisted type: reads are projected
// from Bun queries into transfer records, and writes translate transfer
// records into fresh persisted records before handing them to the generic
// repository.
//
//	mapper.Declare[UserDTO, User](
//		mapper.Field("Name", func(d *UserDTO) *string { return &d.Name }, func(p *User) *string { return &p.Name }),
//	)
//	users := crudkit.NewService[UserDTO, User]()
//	resp, err := users.SaveUnique(ctx, &UserDTO{Name: "x"}, types.NewQueryFilter("name = ?", "x"))
package crudkit
