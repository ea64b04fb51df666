/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package device

// USB identity of the one supported device, the Elgato Wave XLR. The
// configuration traffic runs over the vendor interface.
const (
	VendorID  = 0x0FD9
	ProductID = 0x007D

	InterfaceClass    = 0xFF
	InterfaceSubClass = 0xF0
	InterfaceProtocol = 0x00
)

// Control request codes observed between Wave Link and the device.
// No other request codes are decoded.
const (
	// RequestSetConfig is the host to device configuration write
	RequestSetConfig = 0x05
	// RequestGetConfig is the device to host configuration read
	RequestGetConfig = 0x85
	// ConfigIndex is the wIndex both requests carry
	ConfigIndex = 0x3300
)

// Persistence mode carried in wValue of a set-config request.
const (
	ModeTemporary  = 0x0000
	ModePersistent = 0x0002
)
