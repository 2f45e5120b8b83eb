package main

import (
	packetutils "github.com/doismellburning/packetutils/src"
)

func main() {
	packetutils.PktTxMain()
}
