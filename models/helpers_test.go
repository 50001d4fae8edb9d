package models

import "time"

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
