package stm_test

import (
	"fmt"

	"github.com/kolkov/stm/stm"
)

// Example demonstrates the basic begin/write/end, begin/read/end cycle
// against a freshly created region.
func Example() {
	region, err := stm.Create(8, 8)
	if err != nil {
		fmt.Println("create failed:", err)
		return
	}
	defer region.Destroy()

	tx, _ := region.Begin(false)
	region.Write(tx, []byte{42, 0, 0, 0, 0, 0, 0, 0}, 8, region.Start())
	region.End(tx)

	ro, _ := region.Begin(true)
	buf := make([]byte, 8)
	region.Read(ro, region.Start(), 8, buf)
	region.End(ro)

	fmt.Println(buf[0])

	// Output:
	// 42
}
