// Package mocks provides centralized mock implementations for testing.
//
// Each mock has one function field per interface method. When the field is
// nil, the method returns the mock's default values, so a test only writes
// the behaviour it cares about:
//
//	svc := &mocks.MockChecklistService{
//	    GetChecklistFn: func(ctx context.Context, id uuid.UUID) (*domain.Checklist, error) {
//	        return nil, store.ErrChecklistNotFound
//	    },
//	}
//
// When adding a new mock to this package:
//  1. Create a new file named after the interface being mocked
//  2. Implement the mock struct with function fields for each interface method
//  3. Add a compile-time assertion that the mock satisfies the interface
package mocks
