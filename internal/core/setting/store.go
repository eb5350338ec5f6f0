// Copyright (c) 2026 Exvault. All rights reserved.

package setting

import "context"

type Repository interface {
	Upsert(context context.Context, key, value string) error
	Get(context context.Context, key string) (value string, found bool, err error)
	Delete(context context.Context, key string) error
}
