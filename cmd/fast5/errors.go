package main

import "errors"

var errNoCompression = errors.New("no target compression: pass --compression or set compression in the config")
