package repository

import "time"

var now = time.Now
